// Package mediagate provides the decision core of a read-path gateway for
// immutable media objects: conditional-cache evaluation for file requests and
// the types shared by the storage backends and HTTP layer.
//
// Objects behind the gateway are write-once. A path therefore identifies
// exactly one version of an object forever, which lets the gateway derive a
// validator token from the path alone and answer repeat fetches with 304
// without touching storage.
//
// # Key Components
//
//   - CacheGateway: per-request conditional-cache decisions (Classify,
//     Fingerprint, Evaluate)
//   - PolicyTable: explicit Category -> CachePolicy mapping, validated for
//     exhaustiveness at construction
//   - Storage: narrow fetch interface implemented by the s3store and
//     filesystem packages
//
// # Example Usage
//
//	gw, err := mediagate.NewCacheGateway(mediagate.DefaultPolicies())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dec := gw.Evaluate("segments/42/last_frame.png", clientToken)
//	if dec.NotModified {
//	    // respond 304, skip the storage fetch entirely
//	}
//
// See the http package for the HTTP surface and the ratelimit package for the
// sliding-window limiter protecting the credential endpoint.
package mediagate
