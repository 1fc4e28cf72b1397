package options

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

var _ IOptions = (*S3Options)(nil)

// S3Options configures the object store that receives generated DiLauncher
// automation files.
type S3Options struct {
	// Enabled sends exports triggered over HTTP to the bucket instead of
	// vehicle.output-path.
	Enabled         bool   `json:"enabled" mapstructure:"enabled"`
	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `json:"access-key-id" mapstructure:"access-key-id"`
	SecretAccessKey string `json:"secret-access-key" mapstructure:"secret-access-key"`
	UseSSL          bool   `json:"use-ssl" mapstructure:"use-ssl"`
	BucketName      string `json:"bucket-name" mapstructure:"bucket-name"`
	Region          string `json:"region" mapstructure:"region"`
	ObjectKey       string `json:"object-key" mapstructure:"object-key"`
}

func NewS3Options() *S3Options {
	return &S3Options{
		Endpoint:   "localhost:9000",
		UseSSL:     false,
		BucketName: "carbridge",
		Region:     "us-east-1",
		ObjectKey:  "dilauncher_automations.json",
	}
}

func (o *S3Options) Validate() []error {
	errors := []error{}

	if !o.Enabled {
		return errors
	}
	if strings.Contains(o.Endpoint, "://") {
		errors = append(errors, fmt.Errorf("--s3.endpoint %q must be host[:port] without a scheme", o.Endpoint))
	}
	if o.BucketName == "" {
		errors = append(errors, fmt.Errorf("--s3.bucket-name must not be empty"))
	}
	if o.ObjectKey == "" {
		errors = append(errors, fmt.Errorf("--s3.object-key must not be empty"))
	}

	return errors
}

func (o *S3Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "s3.enabled", o.Enabled, "Upload DiLauncher automations to S3 instead of writing a local file.")
	fs.StringVar(&o.Endpoint, "s3.endpoint", o.Endpoint, "S3 service endpoint (e.g. s3.amazonaws.com or minio.local:9000)")
	fs.StringVar(&o.AccessKeyID, "s3.access-key-id", o.AccessKeyID, "S3 access key ID")
	fs.StringVar(&o.SecretAccessKey, "s3.secret-access-key", o.SecretAccessKey, "S3 secret access key")
	fs.BoolVar(&o.UseSSL, "s3.use-ssl", o.UseSSL, "Enable SSL for S3 connection")
	fs.StringVar(&o.BucketName, "s3.bucket-name", o.BucketName, "S3 bucket name for generated automation files")
	fs.StringVar(&o.Region, "s3.region", o.Region, "S3 region")
	fs.StringVar(&o.ObjectKey, "s3.object-key", o.ObjectKey, "Object key of the DiLauncher automation file")
}
