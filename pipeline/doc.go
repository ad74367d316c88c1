// Package pipeline chains lazy operators over range-over-func sequences.
//
// No work happens until values are pulled by Collect, ForEach or a range over
// All. The first error ends the chain, so a multi-stage run aborts before
// anything is persisted:
//
//	stages := pipeline.Map(pipeline.FromSlice(run.StageNames()), o.processStage)
//	results, err := pipeline.Collect(ctx, pipeline.Tap(stages, logStage))
//
// Batch bounds warehouse insert requests.
package pipeline
