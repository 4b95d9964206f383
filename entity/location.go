package entity

import (
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// Location identifies an object in storage.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key)
}

// LocationFromEvent extracts the location of the uploaded object from an S3 notification.
// Only the first record is regarded. The URL decoded key is used when provided, since keys
// in S3 notifications are URL encoded.
func LocationFromEvent(event events.S3Event) (Location, error) {
	if len(event.Records) == 0 {
		return Location{}, fmt.Errorf("%w: trigger event contains no records", ErrInput)
	}

	s3e := event.Records[0].S3
	loc := Location{
		Bucket: s3e.Bucket.Name,
		Key:    s3e.Object.URLDecodedKey,
	}
	if loc.Key == "" {
		loc.Key = s3e.Object.Key
	}

	if loc.Bucket == "" || loc.Key == "" {
		return loc, fmt.Errorf("%w: trigger event is missing bucket name or object key", ErrInput)
	}
	return loc, nil
}
