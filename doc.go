// Package batterytwin maintains a physics-derived digital twin of an electric
// vehicle's battery pack; A digital twin is a virtual representation of a
// real-world entity - maintained by digesting telemetry streams from the
// vehicle fleet in order to produce a consistent view about the health of each
// battery pack.
//
// Specifically, a battery twin derives latent health parameters (internal
// resistance, capacity fade, power fade, thermal-runaway risk, dendrite
// growth, electrolyte degradation) from raw sensor readings using closed-form
// physical and empirical models, incrementally ages those parameters on every
// telemetry update, projects future state at multiple time horizons, and
// converts the resulting risk profile into a failure-probability estimate and
// a ranked set of maintenance recommendations.
//
// The Engine type is the entry point. It is pure computation over state held
// in a TwinStore: it performs no I/O of its own and never blocks, so it can
// run on any calling goroutine. Concurrent updates to different vehicles are
// independent; concurrent updates to the same vehicle must be serialized by
// the caller (one logical update stream per vehicle).
package batterytwin
