package device

import (
	"bytes"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"

	. "github.com/weberc2/blockfs/pkg/types"
)

// S3Device stores each sector as its own object under
// `{prefix}/{sector}` so a sector write never rewrites the rest of the
// volume. Objects for never-written sectors are simply absent; reading
// one yields zeros, matching a freshly zeroed disk.
type S3Device struct {
	Client  *s3.S3
	Bucket  string
	Prefix  string
	Sectors Sector
}

func (d *S3Device) key(sector Sector) string {
	return fmt.Sprintf("%s/%08x", d.Prefix, sector)
}

func (d *S3Device) ReadSector(sector Sector, b []byte) error {
	checkSector(sector, d.Sectors, b)
	key := d.key(sector)
	rsp, err := d.Client.GetObject(&s3.GetObjectInput{
		Bucket: &d.Bucket,
		Key:    &key,
	})
	if err != nil {
		if err, ok := err.(awserr.Error); ok {
			if err.Code() == s3.ErrCodeNoSuchKey {
				for i := range b {
					b[i] = 0
				}
				return nil
			}
		}
		return fmt.Errorf(
			"reading sector `%d` from bucket `%s` at key `%s`: %w",
			sector,
			d.Bucket,
			key,
			err,
		)
	}
	defer rsp.Body.Close()
	if _, err := io.ReadFull(rsp.Body, b); err != nil {
		return fmt.Errorf(
			"reading sector `%d` from bucket `%s` at key `%s`: %w",
			sector,
			d.Bucket,
			key,
			err,
		)
	}
	return nil
}

func (d *S3Device) WriteSector(sector Sector, b []byte) error {
	checkSector(sector, d.Sectors, b)
	key := d.key(sector)
	if _, err := d.Client.PutObject(&s3.PutObjectInput{
		Bucket: &d.Bucket,
		Key:    &key,
		Body:   bytes.NewReader(b),
	}); err != nil {
		return fmt.Errorf(
			"writing sector `%d` to bucket `%s` at key `%s`: %w",
			sector,
			d.Bucket,
			key,
			err,
		)
	}
	return nil
}

func (d *S3Device) SectorCount() Sector { return d.Sectors }

var _ Device = &S3Device{}
