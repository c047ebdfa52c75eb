package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sitecraft/sitecraft-identity/internal/metrics"
	"github.com/sitecraft/sitecraft-identity/internal/model"
	"github.com/sitecraft/sitecraft-identity/internal/repository"
)

// AdminService implements the administrator operations. Callers are
// expected to have passed Gate.AuthorizeAdmin first.
type AdminService struct {
	store   *repository.Store
	metrics *metrics.Metrics
}

// NewAdminService creates a new AdminService. m may be nil.
func NewAdminService(store *repository.Store, m *metrics.Metrics) *AdminService {
	return &AdminService{store: store, metrics: m}
}

// AwardEnergy credits energy to the user whose email or nickname matches
// req.TargetEmail. The balance change, the ledger entry and the audit entry
// commit together or not at all.
func (s *AdminService) AwardEnergy(ctx context.Context, adminID int64, req model.GiveEnergyRequest, ip string) (model.GiveEnergyResponse, error) {
	if err := req.Validate(); err != nil {
		return model.GiveEnergyResponse{}, err
	}

	var resp model.GiveEnergyResponse
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		target, err := repos.Users.FindByIdentifier(ctx, req.TargetEmail)
		if err != nil {
			return err
		}

		balance, err := repos.Users.AddEnergy(ctx, target.ID, req.Amount)
		if err != nil {
			return err
		}

		if err := repos.Ledger.Append(ctx, &model.EnergyTransaction{
			UserID:          target.ID,
			Amount:          req.Amount,
			TransactionType: model.TransactionAdminAward,
			Description:     req.Reason,
			AdminID:         &adminID,
		}); err != nil {
			return err
		}

		if err := repos.Logs.Append(ctx, &model.UserLog{
			UserID:            target.ID,
			ActionType:        model.ActionEnergyReceived,
			ActionDescription: fmt.Sprintf("Received %d energy: %s", req.Amount, req.Reason),
			EnergyChange:      req.Amount,
			IPAddress:         ip,
		}); err != nil {
			return err
		}

		resp = model.GiveEnergyResponse{
			Success:    true,
			TargetUser: target.Nickname,
			Amount:     req.Amount,
			NewEnergy:  balance,
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return model.GiveEnergyResponse{}, ErrUserNotFound
		case errors.Is(err, repository.ErrEnergyRange):
			return model.GiveEnergyResponse{}, &model.ValidationError{Fields: []model.FieldError{
				{Field: "amount", Message: "would exceed the maximum balance"},
			}}
		}
		return model.GiveEnergyResponse{}, err
	}

	s.metrics.EnergyAwarded(req.Amount)
	slog.Info("energy awarded", "admin_id", adminID, "target", resp.TargetUser, "amount", req.Amount)

	return resp, nil
}

// BanUser permanently removes every account whose email or nickname matches
// req.TargetEmail. A miss is not an error; the response reports it. A match
// on the calling admin refuses the whole ban.
func (s *AdminService) BanUser(ctx context.Context, adminID int64, req model.BanUserRequest, ip string) (model.BanUserResponse, error) {
	if err := req.Validate(); err != nil {
		return model.BanUserResponse{}, err
	}

	var deleted []int64
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		deleted, err = repos.Users.DeleteByIdentifier(ctx, req.TargetEmail, adminID)
		if err != nil || len(deleted) == 0 {
			return err
		}

		return repos.Logs.Append(ctx, &model.UserLog{
			UserID:            adminID,
			ActionType:        model.ActionUserBanned,
			ActionDescription: "Banned user: " + req.TargetEmail,
			IPAddress:         ip,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrProtectedUser) {
			return model.BanUserResponse{}, &model.ValidationError{Fields: []model.FieldError{
				{Field: "target_email", Message: "cannot ban your own account"},
			}}
		}
		return model.BanUserResponse{}, err
	}

	if len(deleted) == 0 {
		return model.BanUserResponse{
			Success: true,
			Deleted: false,
			Message: "No user matched " + req.TargetEmail,
		}, nil
	}

	s.metrics.UserBanned(len(deleted))
	slog.Info("user banned", "admin_id", adminID, "deleted_ids", deleted)

	return model.BanUserResponse{
		Success: true,
		Deleted: true,
		Message: "User " + req.TargetEmail + " deleted",
	}, nil
}

// ListUsers returns every account, newest first.
func (s *AdminService) ListUsers(ctx context.Context) (model.UsersResponse, error) {
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return model.UsersResponse{}, err
	}

	out := make([]model.AdminUser, 0, len(users))
	for i := range users {
		out = append(out, model.NewAdminUser(&users[i]))
	}
	return model.UsersResponse{Users: out}, nil
}

// Stats returns the dashboard aggregates.
func (s *AdminService) Stats(ctx context.Context) (model.Stats, error) {
	return s.store.Stats.Get(ctx)
}

// ListLogs returns audit entries matching f, newest first.
func (s *AdminService) ListLogs(ctx context.Context, f model.LogFilter) (model.LogsResponse, error) {
	logs, err := s.store.Logs.List(ctx, f)
	if err != nil {
		return model.LogsResponse{}, err
	}
	if logs == nil {
		logs = []model.UserLogEntry{}
	}
	return model.LogsResponse{Logs: logs}, nil
}

// ListTransactions returns ledger entries matching f, newest first.
func (s *AdminService) ListTransactions(ctx context.Context, f model.LogFilter) (model.TransactionsResponse, error) {
	txs, err := s.store.Ledger.List(ctx, f)
	if err != nil {
		return model.TransactionsResponse{}, err
	}
	if txs == nil {
		txs = []model.EnergyTransaction{}
	}
	return model.TransactionsResponse{Transactions: txs}, nil
}
