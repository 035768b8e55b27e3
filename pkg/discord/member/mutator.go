// Package member applies formatted nicknames and the completion role to
// guild members.
package member

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/nicknamebot/pkg/errutil"
	"github.com/small-frappuccino/nicknamebot/pkg/nickname"
	"github.com/small-frappuccino/nicknamebot/pkg/storage"
)

// Recorder persists the outcome of a nickname change. *storage.Store
// satisfies it.
type Recorder interface {
	RecordNicknameChange(ctx context.Context, c storage.NicknameChange) (int64, error)
}

// Result is the terminal state of one invocation.
type Result struct {
	Nickname        string
	NicknameOutcome nickname.NicknameOutcome
	RoleOutcome     nickname.RoleOutcome
	// Message is the user-facing text for the invoker.
	Message string
}

// Applied reports whether the nickname was set and the member holds the role.
func (r Result) Applied() bool {
	return r.NicknameOutcome == nickname.NicknameApplied &&
		(r.RoleOutcome == nickname.RoleGranted || r.RoleOutcome == nickname.RoleAlreadyPresent)
}

// Mutator sets nicknames and grants the completion role in one guild.
type Mutator struct {
	session  *discordgo.Session
	guildID  string
	roleID   string
	recorder Recorder
	logger   *slog.Logger
}

// NewMutator returns a Mutator. recorder may be nil to skip auditing.
func NewMutator(session *discordgo.Session, guildID, roleID string, recorder Recorder, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{
		session:  session,
		guildID:  guildID,
		roleID:   roleID,
		recorder: recorder,
		logger:   logger.With(slog.String("component", "nickname_mutator")),
	}
}

// Change validates and formats req, then applies it.
func (m *Mutator) Change(ctx context.Context, req nickname.Request) (Result, error) {
	if err := nickname.Validate(req.RawName, req.RawInstitution); err != nil {
		return Result{}, err
	}
	return m.Apply(ctx, req, nickname.Format(req.RawName, req.RawInstitution))
}

// Apply sets req.Target's nickname to formatted and then grants the role. A
// forbidden nickname edit stops before the role grant. A forbidden role
// grant leaves the new nickname in place. Errors other than forbidden are
// returned wrapped; forbidden outcomes are reported through Result.
func (m *Mutator) Apply(ctx context.Context, req nickname.Request, formatted string) (Result, error) {
	target, actor := req.Target, req.Actor
	self := req.SelfService()
	reason := AuditReason(req)
	res := Result{Nickname: formatted}

	logger := m.logger.With(
		slog.String("guild_id", m.guildID),
		slog.String("actor_id", actor.ID),
		slog.String("target_id", target.ID),
		slog.String("nickname", formatted),
	)

	err := errutil.HandleDiscordError("nickname_edit", func() error {
		return m.session.GuildMemberNickname(m.guildID, target.ID, formatted,
			discordgo.WithAuditLogReason(reason), discordgo.WithContext(ctx))
	})
	switch {
	case errutil.IsForbidden(err):
		res.NicknameOutcome = nickname.NicknamePermissionDenied
		res.Message = nicknameDeniedMessage(target, self)
		logger.Warn("Nickname change forbidden")
		m.record(ctx, logger, target, actor, res)
		return res, nil
	case err != nil:
		return res, fmt.Errorf("set nickname for %s: %w", target.ID, err)
	}
	res.NicknameOutcome = nickname.NicknameApplied

	if target.HasRole(m.roleID) {
		res.RoleOutcome = nickname.RoleAlreadyPresent
	} else {
		err = errutil.HandleDiscordError("role_grant", func() error {
			return m.session.GuildMemberRoleAdd(m.guildID, target.ID, m.roleID,
				discordgo.WithAuditLogReason(reason), discordgo.WithContext(ctx))
		})
		switch {
		case errutil.IsForbidden(err):
			res.RoleOutcome = nickname.RolePermissionDenied
			res.Message = roleDeniedMessage(target, self)
			logger.Warn("Role grant forbidden; nickname left in place", slog.String("role_id", m.roleID))
			m.record(ctx, logger, target, actor, res)
			return res, nil
		case err != nil:
			return res, fmt.Errorf("grant role %s to %s: %w", m.roleID, target.ID, err)
		}
		res.RoleOutcome = nickname.RoleGranted
	}

	res.Message = successMessage(target, formatted, self)
	logger.Info("Nickname applied", slog.String("role", res.RoleOutcome.String()))
	m.record(ctx, logger, target, actor, res)
	return res, nil
}

func (m *Mutator) record(ctx context.Context, logger *slog.Logger, target, actor nickname.Identity, res Result) {
	if m.recorder == nil {
		return
	}
	_, err := m.recorder.RecordNicknameChange(ctx, storage.NicknameChange{
		GuildID:         m.guildID,
		ActorID:         actor.ID,
		TargetID:        target.ID,
		Nickname:        res.Nickname,
		NicknameOutcome: res.NicknameOutcome.String(),
		RoleOutcome:     res.RoleOutcome.String(),
	})
	if err != nil {
		logger.Warn("Failed to record nickname change", slog.Any("error", err))
	}
}

// AuditReason is the audit-log reason attached to both mutations.
func AuditReason(req nickname.Request) string {
	if req.SelfService() {
		return "set own nickname using bot"
	}
	return req.Actor.Username + " set nickname using bot"
}

// GuildID is the guild this mutator acts in.
func (m *Mutator) GuildID() string { return m.guildID }
