package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"
)

const indentUnit = "  "

type Value interface {
	String() string
	Set(string) error
	Get() any
}

type stringValue struct{ p *string }

func (v *stringValue) Set(s string) error   { *v.p = s; return nil }
func (v *stringValue) String() string       { return *v.p }
func (v *stringValue) Get() any             { return *v.p }
func newStringValue(p *string) *stringValue { return &stringValue{p} }

type boolValue struct{ p *bool }

func (v *boolValue) Set(s string) error {
	val, err := strconv.ParseBool(s)
	if err != nil && s != "" {
		return fmt.Errorf("invalid boolean value '%s': %w", s, err)
	}
	*v.p = val || s == ""
	return nil
}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }
func (v *boolValue) Get() any       { return *v.p }
func newBoolValue(p *bool) *boolValue {
	return &boolValue{p}
}

type Flag struct {
	Name         string
	Shorthand    string
	Usage        string
	Value        Value
	DefValue     string
	ExpectedType string
}

// FlagGroup is a family of -<Prefix><name> / -<Prefix>no-<name> switches.
type FlagGroup struct {
	Name      string
	Flags     []FlagGroupEntry
	GroupType string
}

// FlagGroupEntry is one member of a FlagGroup. Default is only shown in the
// help page; Enabled and Disabled record what was given on the command line.
type FlagGroupEntry struct {
	Name     string
	Prefix   string
	Usage    string
	Default  bool
	Enabled  *bool
	Disabled *bool
}

type FlagSet struct {
	name       string
	flags      map[string]*Flag
	shorthands map[string]*Flag
	args       []string
	flagGroups []FlagGroup
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{
		name:       name,
		flags:      make(map[string]*Flag),
		shorthands: make(map[string]*Flag),
	}
}

func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) Lookup(name string) *Flag { return f.flags[name] }

func (f *FlagSet) String(p *string, name, shorthand, value, usage, expectedType string) {
	*p = value
	f.Var(newStringValue(p), name, shorthand, usage, value, expectedType)
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.Var(newBoolValue(p), name, shorthand, usage, strconv.FormatBool(value), "")
}

func (f *FlagSet) DefineGroupFlags(entries []FlagGroupEntry) {
	for i := range entries {
		if entries[i].Enabled != nil {
			f.Bool(entries[i].Enabled, entries[i].Prefix+entries[i].Name, "", *entries[i].Enabled, entries[i].Usage)
		}
		if entries[i].Disabled != nil {
			disableUsage := "Disable '" + entries[i].Name + "'"
			f.Bool(entries[i].Disabled, entries[i].Prefix+"no-"+entries[i].Name, "", *entries[i].Disabled, disableUsage)
		}
	}
}

func (f *FlagSet) AddFlagGroup(name, groupType string, entries []FlagGroupEntry) {
	f.DefineGroupFlags(entries)
	f.flagGroups = append(f.flagGroups, FlagGroup{Name: name, Flags: entries, GroupType: groupType})
}

func (f *FlagSet) Var(value Value, name, shorthand, usage, defValue, expectedType string) {
	if name == "" {
		panic("flag name cannot be empty")
	}
	flag := &Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: value, DefValue: defValue, ExpectedType: expectedType}
	if _, ok := f.flags[name]; ok {
		panic(fmt.Sprintf("flag redefined: %s", name))
	}
	f.flags[name] = flag
	if shorthand != "" {
		if _, ok := f.shorthands[shorthand]; ok {
			panic(fmt.Sprintf("shorthand flag redefined: %s", shorthand))
		}
		f.shorthands[shorthand] = flag
	}
}

// Parse accepts --name[=value], -name[=value] for multi-letter names
// (the -W/-F groups), and -x[value] shorthands.
func (f *FlagSet) Parse(arguments []string) error {
	f.args = []string{}
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		if len(arg) < 2 || arg[0] != '-' {
			f.args = append(f.args, arg)
			continue
		}
		if arg == "--" {
			f.args = append(f.args, arguments[i+1:]...)
			break
		}
		if strings.HasPrefix(arg, "--") {
			if err := f.parseLongFlag(arg[2:], arguments, &i); err != nil {
				return err
			}
			continue
		}
		name := strings.SplitN(arg[1:], "=", 2)[0]
		if _, ok := f.flags[name]; ok && len(name) > 1 {
			if err := f.parseLongFlag(arg[1:], arguments, &i); err != nil {
				return err
			}
			continue
		}
		if err := f.parseShortFlag(arg, arguments, &i); err != nil {
			return err
		}
	}
	return nil
}

func (f *FlagSet) parseLongFlag(body string, arguments []string, i *int) error {
	parts := strings.SplitN(body, "=", 2)
	name := parts[0]
	if name == "" {
		return fmt.Errorf("empty flag name")
	}
	flag, ok := f.flags[name]
	if !ok {
		return fmt.Errorf("unknown flag: --%s", name)
	}
	if len(parts) == 2 {
		return flag.Value.Set(parts[1])
	}
	if _, isBool := flag.Value.(*boolValue); isBool {
		return flag.Value.Set("")
	}
	if *i+1 >= len(arguments) {
		return fmt.Errorf("flag needs an argument: --%s", name)
	}
	*i++
	return flag.Value.Set(arguments[*i])
}

func (f *FlagSet) parseShortFlag(arg string, arguments []string, i *int) error {
	shorthand := arg[1:2]
	flag, ok := f.shorthands[shorthand]
	if !ok {
		return fmt.Errorf("unknown shorthand flag: -%s", shorthand)
	}
	if _, isBool := flag.Value.(*boolValue); isBool {
		if len(arg) > 2 {
			return fmt.Errorf("flag -%s does not take a value", shorthand)
		}
		return flag.Value.Set("")
	}
	value := arg[2:]
	if value == "" {
		if *i+1 >= len(arguments) {
			return fmt.Errorf("flag needs an argument: -%s", shorthand)
		}
		*i++
		value = arguments[*i]
	}
	return flag.Value.Set(value)
}

type App struct {
	Name        string
	Synopsis    string
	Description string
	Notes       []string // printed after the flag tables
	Repository  string
	FlagSet     *FlagSet
	Action      func(args []string) error
	Stdout      io.Writer
	Stderr      io.Writer
}

func NewApp(name string) *App {
	return &App{
		Name:    name,
		FlagSet: NewFlagSet(name),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintln(a.Stderr, err)
		a.generateUsagePage(a.Stderr)
		return err
	}
	if help {
		a.generateHelpPage(a.Stdout)
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

// row is one line of a help table: the flag spelling, its usage text and
// an optional marker printed in a right-hand column.
type row struct{ left, usage, mark string }

func (a *App) generateUsagePage(w io.Writer) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Usage: %s %s\n", a.Name, a.Synopsis)
	fmt.Fprintf(&sb, "Run '%s --help' for all options.\n", a.Name)
	fmt.Fprint(w, sb.String())
}

func (a *App) generateHelpPage(w io.Writer) {
	var sb strings.Builder
	width := getTerminalWidth()

	if a.Description != "" {
		for _, line := range wrapText(a.Name+": "+a.Description, width) {
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Usage:\n%s%s %s\n", indentUnit, a.Name, a.Synopsis)

	var options []row
	for _, flag := range a.optionFlags() {
		mark := ""
		if _, isBool := flag.Value.(*boolValue); !isBool && flag.DefValue != "" {
			mark = "[" + flag.DefValue + "]"
		}
		options = append(options, row{flagSpelling(flag), flag.Usage, mark})
	}
	tables := [][]row{options}
	titles := []string{"Options"}

	groups := make([]FlagGroup, len(a.FlagSet.flagGroups))
	copy(groups, a.FlagSet.flagGroups)
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	for _, g := range groups {
		if len(g.Flags) == 0 {
			continue
		}
		tables = append(tables, groupRows(g))
		titles = append(titles, g.Name)
	}

	leftWidth := 0
	for _, t := range tables {
		for _, r := range t {
			leftWidth = max(leftWidth, len(r.left))
		}
	}
	for i, t := range tables {
		fmt.Fprintf(&sb, "\n%s:\n", titles[i])
		writeTable(&sb, t, leftWidth, width)
	}

	if len(a.Notes) > 0 {
		sb.WriteString("\n")
		for _, note := range a.Notes {
			for _, line := range wrapText(note, width) {
				sb.WriteString(line + "\n")
			}
		}
	}
	if a.Repository != "" {
		fmt.Fprintf(&sb, "\nReport bugs at %s\n", a.Repository)
	}
	fmt.Fprint(w, sb.String())
}

// groupRows lists the -X<name>/-Xno-<name> forms followed by every member
// of the group, marked on or off according to its default.
func groupRows(g FlagGroup) []row {
	kind := g.GroupType
	if kind == "" {
		kind = "flag"
	}
	prefix := g.Flags[0].Prefix
	rows := []row{
		{fmt.Sprintf("-%s<%s>", prefix, kind), "Enable a " + kind, ""},
		{fmt.Sprintf("-%sno-<%s>", prefix, kind), "Disable a " + kind, ""},
	}
	entries := make([]FlagGroupEntry, len(g.Flags))
	copy(entries, g.Flags)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	for _, e := range entries {
		mark := "off"
		if e.Default {
			mark = "on"
		}
		rows = append(rows, row{indentUnit + e.Name, e.Usage, mark})
	}
	return rows
}

func writeTable(sb *strings.Builder, rows []row, leftWidth, termWidth int) {
	usageWidth := max(termWidth-len(indentUnit)-leftWidth-1-6, 10)
	cont := strings.Repeat(" ", len(indentUnit)+leftWidth+1)
	for _, r := range rows {
		lines := wrapText(r.usage, usageWidth)
		first := ""
		if len(lines) > 0 {
			first = lines[0]
		}
		line := fmt.Sprintf("%s%-*s %-*s", indentUnit, leftWidth, r.left, usageWidth, first)
		if r.mark != "" {
			line += " " + r.mark
		}
		sb.WriteString(strings.TrimRight(line, " ") + "\n")
		for _, l := range lines[min(1, len(lines)):] {
			sb.WriteString(cont + l + "\n")
		}
	}
}

func (a *App) optionFlags() []*Flag {
	grouped := make(map[string]bool)
	for _, g := range a.FlagSet.flagGroups {
		for _, e := range g.Flags {
			grouped[e.Prefix+e.Name] = true
			grouped[e.Prefix+"no-"+e.Name] = true
		}
	}
	var flags []*Flag
	for name, flag := range a.FlagSet.flags {
		if !grouped[name] {
			flags = append(flags, flag)
		}
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })
	return flags
}

func flagSpelling(flag *Flag) string {
	var sb strings.Builder
	if flag.Shorthand != "" {
		fmt.Fprintf(&sb, "-%s, ", flag.Shorthand)
	}
	if len(flag.Name) > 1 && strings.ToUpper(flag.Name[:1]) == flag.Name[:1] {
		fmt.Fprintf(&sb, "-%s", flag.Name)
	} else {
		fmt.Fprintf(&sb, "--%s", flag.Name)
	}
	if _, isBool := flag.Value.(*boolValue); !isBool && flag.ExpectedType != "" {
		fmt.Fprintf(&sb, " <%s>", flag.ExpectedType)
	}
	return sb.String()
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return max(width, 20)
}

func wrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if maxWidth <= 0 || len(words) == 0 {
		return words
	}
	var lines []string
	cur := words[0]
	for _, word := range words[1:] {
		if len(cur)+1+len(word) > maxWidth {
			lines = append(lines, cur)
			cur = word
			continue
		}
		cur += " " + word
	}
	return append(lines, cur)
}
