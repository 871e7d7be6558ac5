// Package testutil holds fixtures shared by tests across packages.
package testutil

import "github.com/roach88/lockstep/internal/ir"

// LeakyPair returns a start pair that no run from reset can reach: RegB is
// Low in both machines but differs. One Copy RegB -> OutputLow exposes the
// difference on the low channel.
func LeakyPair() (cpu1, cpu2 ir.State) {
	cpu1 = ir.State{
		RegA:       ir.Low(true),
		RegB:       ir.Low(true),
		RegC:       ir.High(true),
		OutputHigh: ir.Low(true),
		OutputLow:  ir.Low(false),
	}
	cpu2 = cpu1
	cpu2.RegB = ir.Low(false)
	return cpu1, cpu2
}

// LeakStep is the single step that exposes LeakyPair.
func LeakStep() ir.StepInput {
	return ir.StepInput{Instr: ir.Copy(ir.RegB, ir.RegOutputLow)}
}

// ImplicitFlow skips on the high input, so whether OutputLow is set
// depends on a secret when skipping is armed by High data.
func ImplicitFlow() []ir.StepInput {
	return []ir.StepInput{
		{Instr: ir.SkipNext(ir.RegInputHigh), High1: true, High2: false},
		{Instr: ir.Not(ir.RegZero, ir.RegOutputLow), High1: true, High2: false},
		{Instr: ir.Copy(ir.RegZero, ir.RegOutputLow), High1: true, High2: false},
	}
}

// SmallAlphabet is a handful of instructions that still exercise every
// label path: high input into a register, classification, introspection,
// a join, exposure on both outputs and a conditional skip. Exhaustive and
// inductive searches over it finish in milliseconds.
func SmallAlphabet() []ir.Instruction {
	return []ir.Instruction{
		ir.Copy(ir.RegInputHigh, ir.RegA),
		ir.Copy(ir.RegInputLow, ir.RegB),
		ir.ClassifyInto(ir.RegB, ir.RegC),
		ir.LabelOfInto(ir.RegA, ir.RegB),
		ir.Or(ir.RegA, ir.RegB, ir.RegC),
		ir.Not(ir.RegB, ir.RegB),
		ir.Copy(ir.RegC, ir.RegOutputLow),
		ir.Copy(ir.RegB, ir.RegOutputLow),
		ir.Copy(ir.RegA, ir.RegOutputHigh),
		ir.SkipNext(ir.RegA),
	}
}

// CounterexampleID is ir.CounterexampleID for fixtures known to be valid.
// It panics on error.
func CounterexampleID(cpu1, cpu2 ir.State, mode string, steps []ir.StepInput) string {
	id, err := ir.CounterexampleID(cpu1, cpu2, mode, steps)
	if err != nil {
		panic(err)
	}
	return id
}
