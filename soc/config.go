package soc

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"socgen/hw/cpu"
)

// PeriphKind is the kind of a peripheral.
type PeriphKind uint8

//go:generate stringer -type=PeriphKind -linecomment

const (
	KindROM   PeriphKind = iota // rom
	KindRAM                     // ram
	KindUART                    // uart
	KindTimer                   // timer
)

func (k PeriphKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PeriphKind) UnmarshalText(text []byte) error {
	for kk := KindROM; kk <= KindTimer; kk++ {
		if kk.String() == string(text) {
			*k = kk
			return nil
		}
	}
	return fmt.Errorf("unknown peripheral kind %q", text)
}

// hasIRQ reports whether peripherals of that kind have an interrupt output.
func (k PeriphKind) hasIRQ() bool {
	return k == KindUART || k == KindTimer
}

func (k PeriphKind) isMemory() bool {
	return k == KindROM || k == KindRAM
}

// PeriphConfig describes a peripheral and its place in the memory map.
type PeriphConfig struct {
	Name string     `toml:"name"`
	Kind PeriphKind `toml:"kind"`
	Addr uint32     `toml:"addr"`
	Size uint32     `toml:"size"`
	IRQ  *int       `toml:"irq,omitempty"`

	Baudrate uint32 `toml:"baudrate,omitempty"` // uart
	Width    int    `toml:"width,omitempty"`    // timer counter width, in bits
}

// Config holds the composition parameters of a SoC.
type Config struct {
	CPU       string `toml:"cpu"`
	ResetAddr uint32 `toml:"reset_addr"`
	ClockFreq uint64 `toml:"clk_freq"`

	// Firmware is the path of the boot firmware, loaded into the boot
	// memory. Leave empty to boot from zeroed memory.
	Firmware string `toml:"firmware,omitempty"`
	// Boot is the name of the memory holding the firmware, by default the
	// first ROM.
	Boot string `toml:"boot,omitempty"`
	// IRQWidth, if set, must be equal to the interrupt vector width of the
	// CPU.
	IRQWidth int `toml:"irq_width,omitempty"`
	// Sim makes peripherals faster, for simulation.
	Sim bool `toml:"sim,omitempty"`

	Artifact *cpu.Artifact `toml:"artifact,omitempty"`

	Periphs []PeriphConfig `toml:"periph"`
}

func irq(n int) *int { return &n }

// DefaultConfig returns the configuration of the reference SoC: a minerva
// core with 16KiB of ROM, 8KiB of RAM, a UART and a timer.
func DefaultConfig() Config {
	return Config{
		CPU:       "minerva",
		ResetAddr: 0x00000000,
		ClockFreq: SupportedClock,
		Periphs: []PeriphConfig{
			{Name: "rom", Kind: KindROM, Addr: 0x00000000, Size: 0x4000},
			{Name: "ram", Kind: KindRAM, Addr: 0x00004000, Size: 0x2000},
			{Name: "uart", Kind: KindUART, Addr: 0xf0000000, Size: 0x1000, IRQ: irq(1), Baudrate: 9600},
			{Name: "timer", Kind: KindTimer, Addr: 0xf0001000, Size: 0x1000, IRQ: irq(0), Width: 32},
		},
	}
}

// A ConfigError reports an invalid configuration parameter.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Validate checks the configuration, without building anything. The CPU
// variant is checked first, then the clock frequency. Address windows and
// interrupt lines are only checked during composition.
func (cfg *Config) Validate() error {
	if _, ok := cpu.All[cfg.CPU]; !ok {
		return &cpu.UnsupportedCPUError{Name: cfg.CPU}
	}
	if cfg.ClockFreq != SupportedClock {
		return &UnsupportedClockError{Freq: cfg.ClockFreq}
	}
	if cfg.IRQWidth < 0 {
		return configErrorf("irq_width", "negative width %d", cfg.IRQWidth)
	}

	var names []string
	for i, p := range cfg.Periphs {
		field := fmt.Sprintf("periph[%d]", i)
		switch {
		case p.Name == "":
			return configErrorf(field, "missing name")
		case slices.Contains(names, p.Name):
			return configErrorf(field, "duplicate name %q", p.Name)
		case p.Kind > KindTimer:
			return configErrorf(field, "invalid kind %d", p.Kind)
		case p.IRQ != nil && !p.Kind.hasIRQ():
			return configErrorf(field, "%s %q has no interrupt output", p.Kind, p.Name)
		case p.Kind == KindUART && p.Baudrate == 0:
			return configErrorf(field, "uart %q: missing baudrate", p.Name)
		case p.Kind == KindTimer && (p.Width < 1 || p.Width > 32):
			return configErrorf(field, "timer %q: width %d out of range [1,32]", p.Name, p.Width)
		}
		names = append(names, p.Name)
	}

	if cfg.Boot != "" {
		p, ok := cfg.periph(cfg.Boot)
		if !ok {
			return configErrorf("boot", "unknown peripheral %q", cfg.Boot)
		}
		if !p.Kind.isMemory() {
			return configErrorf("boot", "%s %q is not a memory", p.Kind, p.Name)
		}
	} else if cfg.Firmware != "" {
		if _, ok := cfg.bootMemory(); !ok {
			return configErrorf("boot", "no rom to load firmware into")
		}
	}
	return nil
}

func (cfg *Config) periph(name string) (PeriphConfig, bool) {
	idx := slices.IndexFunc(cfg.Periphs, func(p PeriphConfig) bool { return p.Name == name })
	if idx == -1 {
		return PeriphConfig{}, false
	}
	return cfg.Periphs[idx], true
}

// bootMemory returns the name of the memory holding the firmware.
func (cfg *Config) bootMemory() (string, bool) {
	if cfg.Boot != "" {
		return cfg.Boot, true
	}
	for _, p := range cfg.Periphs {
		if p.Kind == KindROM {
			return p.Name, true
		}
	}
	return "", false
}

// LoadConfig loads and validates the configuration at path. Unknown keys are
// rejected. A relative firmware path is relative to the directory of the
// configuration file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: %w", path,
			configErrorf(keys[0], "unknown keys: %s", strings.Join(keys, ", ")))
	}
	if cfg.Firmware != "" && !filepath.IsAbs(cfg.Firmware) {
		cfg.Firmware = filepath.Join(filepath.Dir(path), cfg.Firmware)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Marshal encodes the configuration as TOML.
func (cfg Config) Marshal() ([]byte, error) {
	return toml.Marshal(cfg)
}

// SaveConfig writes the configuration at path.
func SaveConfig(path string, cfg Config) error {
	buf, err := cfg.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
