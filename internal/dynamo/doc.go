// Package dynamo provides core primitives for the four-dimensional oscillator engine.
//
// The package defines the value types shared by every other layer:
//
//   - [StateVector]: the (w1, w2, w3, w4) state of one particle
//   - [Params]: per-particle oscillation parameters with documented defaults
//   - [ParamsOverride]: partial parameter overrides merged onto a base
//   - [Source]: injectable random source for ids, parameters and noise
//
// # Example
//
//	p := dynamo.DefaultParams()
//	p, err := dynamo.ParamsOverride{BaseFrequency: &freq}.Merge(p)
//	if err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Values are plain data. [Source] implementations returned by [NewSource] are
// NOT safe for concurrent use; give each simulation its own source.
package dynamo
