package discovery

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/require"

	"github.com/coop/libcluster-digitalocean/membership"
)

type fakeEC2 struct {
	pages  []*ec2.DescribeInstancesOutput
	inputs []*ec2.DescribeInstancesInput
}

func (f *fakeEC2) DescribeInstances(_ context.Context, params *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.inputs = append(f.inputs, params)
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func TestInstanceSourceDiscover(t *testing.T) {
	api := &fakeEC2{pages: []*ec2.DescribeInstancesOutput{
		{
			Reservations: []ec2types.Reservation{{
				Instances: []ec2types.Instance{
					{PublicIpAddress: aws.String("203.0.113.20")},
					{PrivateIpAddress: aws.String("10.0.0.5")}, // no public IP: dropped
				},
			}},
			NextToken: aws.String("page-2"),
		},
		{
			Reservations: []ec2types.Reservation{{
				Instances: []ec2types.Instance{
					{PublicIpAddress: aws.String("203.0.113.21")},
				},
			}},
		},
	}}

	source := &InstanceSource{API: api, TagKey: "cluster", TagValue: "mytag", Basename: "myapp"}
	peers, err := source.Discover(context.Background())
	require.NoError(t, err)

	want := membership.NewPeerSet("myapp@203.0.113.20", "myapp@203.0.113.21")
	require.True(t, peers.Equal(want), "have %v", peers.Slice())

	require.Len(t, api.inputs, 2)
	require.Nil(t, api.inputs[0].NextToken)
	require.Equal(t, "page-2", aws.ToString(api.inputs[1].NextToken))

	var names []string
	for _, f := range api.inputs[0].Filters {
		names = append(names, aws.ToString(f.Name))
	}
	require.Contains(t, names, "instance-state-name")
	require.Contains(t, names, "tag:cluster")
}

func TestInstanceSourceTagKeyOnly(t *testing.T) {
	api := &fakeEC2{pages: []*ec2.DescribeInstancesOutput{{}}}

	source := &InstanceSource{API: api, TagKey: "cluster", Basename: "myapp"}
	peers, err := source.Discover(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, peers.Len())

	var names []string
	for _, f := range api.inputs[0].Filters {
		names = append(names, aws.ToString(f.Name))
	}
	require.Contains(t, names, "tag-key")
}
