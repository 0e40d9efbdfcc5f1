// Package presigned signs browser upload policies and builds presigned PUT
// URLs for direct-to-S3 uploads.
//
// Two signing schemes are supported, both HMAC-SHA1 with the AWS secret key:
//
//   - POST policies: the canonical policy JSON is base64-encoded and the
//     base64 text is signed (SignPolicyDocument, Signer.SignPolicy).
//   - REST PUT: a signature version 2 query-string URL carrying
//     AWSAccessKeyId, Expires, x-amz-acl=private and Signature
//     (BuildPresignedPutURI, Signer.PresignPut).
//
// # Basic Usage
//
//	signer := presigned.New(
//	    presigned.WithCredentials(accessKeyID, secretKey),
//	    presigned.WithDefaultExpiration(5*time.Minute),
//	)
//	signed, err := signer.SignPolicy(policy)
//	uri, err := signer.PresignPut(ctx, "uploads", "alice/0b6c...", 0)
//
// Client-side: Upload to presigned URL
//
//	client := presigned.NewClient()
//	err := client.Upload(ctx, uri, fileReader)
//
// # Local development
//
// With WithEndpoint the signer builds path-style URLs against the
// application itself; Handlers verifies those requests with
// ValidateMiddleware and writes the body into an ObjectWriter.
package presigned
