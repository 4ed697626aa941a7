package cpu

// vexRiscvLineWords is the instruction cache line size, in words. Cache
// refills are issued as incrementing bursts of one line.
const vexRiscvLineWords = 8

// VexRiscv fetches instructions by cache lines, with incrementing bursts.
type VexRiscv struct {
	*bfm
}

var vexriscv = Desc{
	Name: "vexriscv",
	Arch: "riscv",
	New: func(cfg Config) Core {
		return &VexRiscv{bfm: newBFM("vexriscv", "riscv", cfg, vexRiscvLineWords)}
	},
}
