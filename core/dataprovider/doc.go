// Package dataprovider defines the capability contract every endpoint implements.
//
// Capabilities are separate interfaces checked with type assertions:
//
//   - Provider: identity, descriptor, status, Refresh and Finish.
//   - Source: GetAll and Get.
//   - Sink: Put and Delete.
//   - TwoWay: Source and Sink together.
//   - ChangeAware: optional native change log (GetChanges).
//   - Configurable: optional check that required settings are present.
//
// # Status
//
// Providers move through Ready -> Refreshing -> Syncing* -> Done-* and back to
// Ready at the start of the next pass. Module implements the state machine and
// is meant to be embedded by concrete providers.
//
// # Put results
//
// Put returns a PutResult instead of signalling conflicts through errors:
//
//	res := sink.Put(ctx, data, false, "")
//	switch res.Kind {
//	case dataprovider.PutOK:
//	    // res.Rid is the stored identity
//	case dataprovider.PutConflict:
//	    // res.Conflict holds the comparison and both records
//	case dataprovider.PutFailed:
//	    // res.Err, classified with errors.As
//	}
package dataprovider
