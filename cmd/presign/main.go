package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/tendant/simple-upload/pkg/simpleupload/presigned"
)

func main() {
	// Define command-line flags
	bucket := flag.String("bucket", "", "S3 bucket name (default: $AWS_UPLOAD_BUCKET)")
	key := flag.String("key", "", "Object key (default: a random key under -prefix)")
	prefix := flag.String("prefix", "uploads", "Key prefix used when -key is not set")
	accessKey := flag.String("access-key", "", "AWS access key ID (default: $AWS_UPLOAD_ACCESS_KEY_ID)")
	secretKey := flag.String("secret-key", "", "AWS secret access key (default: $AWS_UPLOAD_SECRET_ACCESS_KEY)")
	ttl := flag.Int("ttl", 300, "Seconds until the URL expires")
	endpoint := flag.String("endpoint", "", "Path-style endpoint, e.g. http://localhost:8080/dev")

	flag.Parse()

	// Check for environment variables if flags not provided
	if *bucket == "" {
		*bucket = os.Getenv("AWS_UPLOAD_BUCKET")
	}
	if *accessKey == "" {
		*accessKey = os.Getenv("AWS_UPLOAD_ACCESS_KEY_ID")
	}
	if *secretKey == "" {
		*secretKey = os.Getenv("AWS_UPLOAD_SECRET_ACCESS_KEY")
	}
	if *key == "" {
		*key = *prefix + "/" + uuid.NewString()
	}

	opts := []presigned.Option{presigned.WithCredentials(*accessKey, *secretKey)}
	if *endpoint != "" {
		opts = append(opts, presigned.WithEndpoint(*endpoint))
	}
	uri, err := presigned.New(opts...).PresignPutSeconds(*bucket, *key, *ttl)
	if err != nil {
		log.Fatalf("Failed to presign upload: %v", err)
	}

	fmt.Printf("Key: %s\n", *key)
	fmt.Println(uri)
	fmt.Printf("\ncurl -X PUT -H 'x-amz-acl: %s' --data-binary @file '%s'\n", presigned.CannedACL, uri)
}

