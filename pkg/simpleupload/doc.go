// Package simpleupload validates and signs S3 direct-upload policies.
//
// A browser uploading straight to S3 submits a POST policy document listing
// the conditions its form must satisfy. The Service decodes each condition
// (DecodeCondition), checks the policy against a Ruleset (Validate), makes
// sure the bucket and key lie in the caller's namespace (AccessChecker) and
// returns the policy signed with the AWS secret key (PolicySigner). Once the
// upload finished, Complete verifies ownership again and copies the object
// into permanent storage.
//
// Conditions
//
// A condition is either an array, such as ["starts-with", "$key", "a/"] or
// ["content-length-range", 0, 1024], or a single-entry object such as
// {"bucket": "uploads"}. Condition.MarshalJSON produces the canonical form
// that is signed.
//
// Validation errors are reported as ValidationErrors keyed by
// "conditions.<element name>", or "conditions" when the document itself is
// malformed.
package simpleupload
