package testdesc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v2"
)

// rawDescription mirrors the YAML document's top-level keys (§6.1).
// Markers and MarkersCfg are typed as yaml.MapSlice so the decoder
// preserves declaration order instead of folding them into an
// unordered map.
type rawDescription struct {
	Info       map[string]any      `yaml:"info"`
	Markers    yaml.MapSlice       `yaml:"markers"`
	MarkersCfg yaml.MapSlice       `yaml:"markers_cfg"`
	Prompts    []string            `yaml:"prompts"`
	Triggers   map[string][]string `yaml:"triggers"`
	Actions    map[string][]string `yaml:"actions"`
	UserInp    map[string]string   `yaml:"user_inp"`
	ConfigSeq  []string            `yaml:"initconfig"`
	TestSeq    []string            `yaml:"test"`
	Options    rawOptions          `yaml:"options"`
}

type rawOptions struct {
	Timeout          *float64 `yaml:"timeout"`
	InfiniteTest     bool     `yaml:"infiniteTest"`
	SleepMin         *float64 `yaml:"sleep_min"`
	SleepMax         *float64 `yaml:"sleep_max"`
	TestMaxTimeouts  *int     `yaml:"test_max_timeouts"`
	Sendendr         bool     `yaml:"sendendr"`
	WaitPromptEnter  *int     `yaml:"waitPrompt_enter"`
	WaitPromptReturn *int     `yaml:"waitPrompt_return"`
}

// Load reads and parses a test description YAML file, applying
// defaults to any unset option. Name is derived from the file's base
// name (without extension), matching the original's use of the
// overloaded class name for the result log's file name.
func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading test description %s: %w", path, err)
	}

	var raw rawDescription
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing test description %s: %w", path, err)
	}

	d := &Description{
		Name:       baseName(path),
		FullName:   path,
		Info:       raw.Info,
		Markers:    mapSliceToTable(raw.Markers),
		MarkersCfg: mapSliceToTable(raw.MarkersCfg),
		Prompts:    toSet(raw.Prompts),
		Triggers:   raw.Triggers,
		Actions:    raw.Actions,
		UserInp:    raw.UserInp,
		ConfigSeq:  raw.ConfigSeq,
		TestSeq:    raw.TestSeq,
		Options:    buildOptions(raw.Options),
	}

	if _, ok := d.Info["overwatcher revision required"]; !ok {
		return nil, fmt.Errorf("test description %s: info.\"overwatcher revision required\" is required", path)
	}

	return d, nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func mapSliceToTable(ms yaml.MapSlice) MarkerTable {
	table := make(MarkerTable, 0, len(ms))
	for _, item := range ms {
		table = append(table, MarkerEntry{
			Substring: fmt.Sprintf("%v", item.Key),
			State:     fmt.Sprintf("%v", item.Value),
		})
	}
	return table
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}

func buildOptions(raw rawOptions) Options {
	opts := Options{
		Timeout:          DefaultTimeout,
		InfiniteTest:     raw.InfiniteTest,
		SleepMin:         DefaultSleepMin,
		SleepMax:         DefaultSleepMax,
		TestMaxTimeouts:  DefaultTestMaxTimeouts,
		Sendendr:         raw.Sendendr,
		WaitPromptEnter:  DefaultWaitPromptEnter,
		WaitPromptReturn: DefaultWaitPromptReturn,
	}
	if raw.Timeout != nil {
		opts.Timeout = *raw.Timeout
	}
	if raw.SleepMin != nil {
		opts.SleepMin = *raw.SleepMin
	}
	if raw.SleepMax != nil {
		opts.SleepMax = *raw.SleepMax
	}
	if raw.TestMaxTimeouts != nil {
		opts.TestMaxTimeouts = *raw.TestMaxTimeouts
	}
	if raw.WaitPromptEnter != nil {
		opts.WaitPromptEnter = *raw.WaitPromptEnter
	}
	if raw.WaitPromptReturn != nil {
		opts.WaitPromptReturn = *raw.WaitPromptReturn
	}
	return opts
}
