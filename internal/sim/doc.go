// Package sim runs the hospital diagnostics simulation.
//
// # Overview
//
// A Runner starts one goroutine per configured worker and lets them share
// two monitors for a fixed duration:
//
//   - producers (clinics and wards) create test orders and Put them on a
//     queue.BoundedChannel
//   - consumers (analyzers) Take orders and spend their interval processing
//     each one
//   - readers (auditors) Read the current lab policy from a policy.Store
//   - writers (supervisors) rotate the policy through its labels
//
// Every step is published as an Event through a Broker, which is how the
// dashboard and the plain-mode narration follow a run. A full summary is
// returned as Stats when the run ends and can be rendered with Report.
//
// # Stopping
//
// All waiting is context-aware. A run ends when its duration elapses, when
// the parent context is cancelled or when Stop is called; single workers can
// be stopped with StopWorker. A worker blocked inside Put, Take, Read or
// Write at that moment gets a cancellation error from the monitor and
// returns; that is a normal stop and Run does not report it as a failure.
//
// # Example
//
//	w, _ := config.Preset("heavy")
//	r, err := sim.New(w, policy.StrictFair, sim.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	stats, err := r.Run(ctx)
//	fmt.Println(sim.Report(stats))
package sim
