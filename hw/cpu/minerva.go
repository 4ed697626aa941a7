package cpu

// Minerva fetches instructions with classic single cycles.
type Minerva struct {
	*bfm
}

var minerva = Desc{
	Name: "minerva",
	Arch: "riscv",
	New: func(cfg Config) Core {
		return &Minerva{bfm: newBFM("minerva", "riscv", cfg, 1)}
	},
}
