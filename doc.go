// Package meshsim is the scheduling and checkpoint-coordination core of a
// distributed, timestep-driven simulation.
//
// Modules declare the variables they provide and require. The package derives
// a maximally parallel execution order from those declarations, validates the
// configuration (missing or ambiguous providers, cycles), and coordinates
// checkpoint decisions across a group of cooperating worker processes running
// under a batch-scheduler wallclock limit.
//
// A typical run wires the pieces together like this:
//
//	reg := meshsim.NewRegistry()
//	reg.RegisterSource("forcing", "air_temp", "precip")
//	reg.RegisterModule("snowpack", []string{"swe"}, []string{"air_temp", "precip"})
//	graph, err := meshsim.Build(reg, nil)
//	chunks, err := meshsim.Schedule(graph)
//
// The chunk sequence is consumed once by the execution engine; each chunk is a
// synchronization barrier and its members may run in any order or in parallel.
// During the timestep loop the Driver consults the checkpoint Coordinator and
// the output descriptors once per timestep.
package meshsim
