package mesh

import "testing"

func TestParseAddr(t *testing.T) {
	for _, testcase := range []struct {
		name        string
		addr        string
		defaultPort int
		wantNetwork string
		wantAddress string
		wantHost    string
		wantPort    int
		wantErr     bool
	}{
		{"bare host",
			"myhost", 8701, "tcp", "myhost:8701", "myhost", 8701, false,
		},
		{"host and port",
			"myhost:1234", 8701, "tcp", "myhost:1234", "myhost", 1234, false,
		},
		{"scheme host port",
			"udp://myhost:1234", 8701, "udp", "myhost:1234", "myhost", 1234, false,
		},
		{"scheme host no port",
			"tcp://myhost", 8701, "tcp", "myhost:8701", "myhost", 8701, false,
		},
		{"zeroes",
			"0.0.0.0:8701", 80, "tcp", "0.0.0.0:8701", "0.0.0.0", 8701, false,
		},
		{"garbage",
			"tcp://host:port/path", 80, "", "", "", 0, true,
		},
	} {
		t.Run(testcase.name, func(t *testing.T) {
			network, address, host, port, err := ParseAddr(testcase.addr, testcase.defaultPort)
			if want, have := testcase.wantErr, err != nil; want != have {
				t.Fatalf("want err %v, have %v (%v)", want, have, err)
			}
			if err != nil {
				return
			}
			if want, have := testcase.wantNetwork, network; want != have {
				t.Errorf("network: want %q, have %q", want, have)
			}
			if want, have := testcase.wantAddress, address; want != have {
				t.Errorf("address: want %q, have %q", want, have)
			}
			if want, have := testcase.wantHost, host; want != have {
				t.Errorf("host: want %q, have %q", want, have)
			}
			if want, have := testcase.wantPort, port; want != have {
				t.Errorf("port: want %d, have %d", want, have)
			}
		})
	}
}
