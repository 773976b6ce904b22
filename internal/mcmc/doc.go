// Package mcmc implements single-chain Metropolis-Hastings sampling with a
// burn-in phase and decorrelation skipping between recorded samples.
//
// The sampler proposes candidates through a [proposal.Generator], scores them
// with a [Model]'s likelihood, runs the full model once per recorded sample
// and hands the resulting trajectory to a [Handler]. Handlers may also
// implement [Preprocessor], [Reporter] and [Finalizer].
//
// # Failures
//
// A likelihood evaluation that fails recoverably moves the chain to the
// failing candidate and counts a proposal failure. A run that fails
// recoverably discards the sample and restarts decorrelation. Anything else,
// or any failure when the matching abort flag is set, ends the chain; the
// statistics gathered so far are still returned.
package mcmc
