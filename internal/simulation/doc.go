// Package simulation generates synthetic per-iteration outputs for the
// versions of an N-version module.
//
// For every iteration the Generator draws a reference value and then applies
// one sampling policy per similarity band, in band order: clone, similar,
// partly similar, different. A version that belongs to several band groups
// gets one result per membership.
//
// Every random draw goes through a models.RandomSource, so tests can script
// the exact sequence of rolls:
//
//	src := models.NewRandomSource(42)
//	g := simulation.NewGenerator(src)
//	iterations, err := g.Generate(module, 1000, "baseline")
//
// Scenario files describe a module in YAML and are turned into a
// models.Module with LoadScenario and Scenario.Build.
package simulation
