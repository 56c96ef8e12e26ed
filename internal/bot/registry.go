package bot

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// HandlerFunc runs one slash command after it passed authorization
type HandlerFunc func(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate)

// Command pairs a slash command definition with its handler
type Command struct {
	Definition *discordgo.ApplicationCommand
	Handler    HandlerFunc

	// Manage restricts the command to the guild owner and administrators,
	// on top of the guild's permission rules
	Manage bool
}

// Name returns the slash command name
func (c Command) Name() string {
	return c.Definition.Name
}

// Registry manages all registered slash commands
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates a new command registry
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
	}
}

// Register adds a command to the registry, replacing one with the same name
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name()] = cmd
}

// Get retrieves a command by name
func (r *Registry) Get(name string) (Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[name]
	if !ok {
		return Command{}, fmt.Errorf("unknown command: %s", name)
	}
	return cmd, nil
}

// Names returns the names of all registered commands in alphabetical order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the application command definitions, ordered by name
func (r *Registry) Definitions() []*discordgo.ApplicationCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*discordgo.ApplicationCommand, 0, len(r.commands))
	for _, cmd := range r.commands {
		defs = append(defs, cmd.Definition)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs
}
