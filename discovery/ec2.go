package discovery

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/pkg/errors"

	"github.com/coop/libcluster-digitalocean/membership"
)

// EC2API models the slice of the EC2 client we use.
type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// InstanceSource discovers peers by listing running EC2 instances that
// carry a tag. Same address rules as DropletSource: the instance's public
// IPv4 address, or the instance is skipped.
type InstanceSource struct {
	// API is the EC2 client.
	//
	// Required.
	API EC2API

	// TagKey selects instances by tag. If TagValue is empty, any instance
	// carrying TagKey matches; otherwise the value must match too.
	//
	// TagKey required, TagValue optional.
	TagKey   string
	TagValue string

	// Basename is the shared node basename for peer IDs.
	//
	// Required.
	Basename string
}

var _ membership.Discoverer = (*InstanceSource)(nil)

// NewEC2Client builds an EC2 client for the region. If accessKey is
// non-empty, static credentials are used; otherwise the default chain
// (env, shared config, instance role) applies.
func NewEC2Client(ctx context.Context, region, accessKey, secretKey string) (*ec2.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}
	return ec2.NewFromConfig(cfg), nil
}

// Discover implements membership.Discoverer.
func (s *InstanceSource) Discover(ctx context.Context) (membership.PeerSet, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("instance-state-name"), Values: []string{"running"}},
		},
	}
	if s.TagValue != "" {
		input.Filters = append(input.Filters, ec2types.Filter{
			Name: aws.String("tag:" + s.TagKey), Values: []string{s.TagValue},
		})
	} else {
		input.Filters = append(input.Filters, ec2types.Filter{
			Name: aws.String("tag-key"), Values: []string{s.TagKey},
		})
	}

	peers := membership.PeerSet{}
	for {
		out, err := s.API.DescribeInstances(ctx, input)
		if err != nil {
			return nil, errors.Wrap(err, "describing instances")
		}
		for _, reservation := range out.Reservations {
			for _, instance := range reservation.Instances {
				if instance.PublicIpAddress == nil || *instance.PublicIpAddress == "" {
					continue
				}
				peers.Add(membership.MakePeerID(s.Basename, *instance.PublicIpAddress))
			}
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}
	return peers, nil
}
