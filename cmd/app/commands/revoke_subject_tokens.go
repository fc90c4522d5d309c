package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/allisson/authcore/internal/app"
	auditDomain "github.com/allisson/authcore/internal/audit/domain"
	"github.com/allisson/authcore/internal/config"
	tokenDomain "github.com/allisson/authcore/internal/token/domain"
)

// RunRevokeSubjectTokens revokes every active credential for a subject:
// each active refresh token is marked used and its jti blacklisted. The
// revocation is recorded on the audit trail.
func RunRevokeSubjectTokens(ctx context.Context, subjectIDRaw, subjectTypeRaw, reason string) error {
	subjectID, err := uuid.Parse(subjectIDRaw)
	if err != nil {
		return fmt.Errorf("invalid subject id: %w", err)
	}

	subjectType := tokenDomain.SubjectType(subjectTypeRaw)
	if !subjectType.Valid() {
		return fmt.Errorf("invalid subject type: %s (valid options: user, admin)", subjectTypeRaw)
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	verifier, err := container.VerifierUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize verifier: %w", err)
	}

	revoked, err := verifier.RevokeAllForSubject(ctx, subjectID, subjectType, reason)
	if err != nil {
		return fmt.Errorf("failed to revoke subject tokens: %w", err)
	}

	audit, err := container.AuditUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize audit trail: %w", err)
	}

	st := string(subjectType)
	if _, err := audit.Log(ctx, auditDomain.LogInput{
		SubjectID:   &subjectID,
		SubjectType: &st,
		Action:      auditDomain.ActionTokenRevoked,
		Success:     true,
		Details: map[string]any{
			auditDomain.DetailKeyReason: reason,
			"revoked_count":             revoked,
		},
	}); err != nil {
		logger.Error("failed to record revocation on audit trail", slog.Any("error", err))
	}

	fmt.Printf("Revoked %d active token(s) for %s %s\n", revoked, subjectType, subjectID)
	return nil
}
