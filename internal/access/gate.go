// Package access decides whether a guild member may run a bot command.
//
// A command with no permission rules in a guild is open to everyone. Once at
// least one rule exists, only members holding one of the listed roles may run
// it. Rules are managed by guild owners and administrators.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ErrAuthorizationUnavailable is returned when the rule store cannot be read.
// Callers must deny the command rather than fall open.
var ErrAuthorizationUnavailable = errors.New("authorization unavailable")

// RuleSource loads the roles allowed to run a command in a guild
type RuleSource interface {
	CommandRoles(ctx context.Context, guildID, command string) ([]string, error)
}

// Gate checks commands against the permission rules of a guild
type Gate struct {
	rules RuleSource
}

// NewGate creates a Gate backed by rules
func NewGate(rules RuleSource) *Gate {
	return &Gate{rules: rules}
}

// IsAuthorized reports whether a member holding roles may run command in
// guildID. On a store failure it returns false and an error wrapping
// ErrAuthorizationUnavailable.
func (g *Gate) IsAuthorized(ctx context.Context, guildID, command string, roles []string) (bool, error) {
	allowed, err := g.rules.CommandRoles(ctx, guildID, command)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrAuthorizationUnavailable, err)
	}

	if len(allowed) == 0 {
		return true, nil
	}

	held := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		held[role] = struct{}{}
	}
	for _, role := range allowed {
		if _, ok := held[role]; ok {
			return true, nil
		}
	}
	return false, nil
}

// CanManage reports whether member may change permission rules: the guild
// owner or anyone with the Administrator permission.
func CanManage(member *discordgo.Member, ownerID string) bool {
	if member == nil {
		return false
	}
	if member.User != nil && ownerID != "" && member.User.ID == ownerID {
		return true
	}
	return member.Permissions&discordgo.PermissionAdministrator != 0
}
