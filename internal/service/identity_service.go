package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/reward-hub/internal/errs"
	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/platform"
	"github.com/d60-Lab/reward-hub/internal/repository"
)

// 同一格式键空间足够大，20 次碰撞重试用不完；用完按 IdentityExhausted 上抛由调用方稍后重试。
const maxIDGenerateAttempts = 20

// IdentityService 虚拟身份注册表：签发、反查、使用计数。
// 普通账户每个平台复用一条固定身份；特权账户每次参与新铸一条并绑定任务。
type IdentityService struct {
	db         *gorm.DB
	registry   *platform.Registry
	identities repository.VirtualIdentityRepository
	accounts   repository.AccountRepository
}

func NewIdentityService(db *gorm.DB, registry *platform.Registry,
	identities repository.VirtualIdentityRepository, accounts repository.AccountRepository) *IdentityService {
	return &IdentityService{db: db, registry: registry, identities: identities, accounts: accounts}
}

// Issue 为账户在平台上签发（或复用）虚拟身份。
func (s *IdentityService) Issue(ctx context.Context, account *model.Account, p *model.Platform, taskID int64) (*model.VirtualIdentity, error) {
	return s.IssueInTx(ctx, s.db, account, p, taskID)
}

// IssueInTx 在调用方事务内签发，身份与参与记录同提交同回滚。
func (s *IdentityService) IssueInTx(ctx context.Context, tx *gorm.DB, account *model.Account, p *model.Platform, taskID int64) (*model.VirtualIdentity, error) {
	repo := s.identities.WithTx(tx)
	adapter, err := s.registry.Get(p.Code)
	if err != nil {
		return nil, err
	}

	if !account.IsPrivileged {
		existing, err := repo.FindReusable(ctx, account.ID, p.ID)
		if err == nil {
			return existing, nil
		}
		if !errs.Is(err, errs.ErrNotFound) {
			return nil, err
		}
		vi := &model.VirtualIdentity{
			RealAccountID: account.ID,
			PlatformID:    p.ID,
			IDFormat:      adapter.IDFormat(),
			IsPrivileged:  false,
			IsActive:      true,
		}
		if err := s.generateInto(ctx, repo, adapter, vi); err != nil {
			return nil, err
		}
		return vi, nil
	}

	// 特权账户：每次新铸，绑定本次任务
	tid := taskID
	vi := &model.VirtualIdentity{
		RealAccountID: account.ID,
		PlatformID:    p.ID,
		TaskID:        &tid,
		IDFormat:      adapter.IDFormat(),
		IsPrivileged:  true,
		IsActive:      true,
	}
	if err := s.generateInto(ctx, repo, adapter, vi); err != nil {
		return nil, err
	}
	return vi, nil
}

// generateInto 有界碰撞重试后持久化；唯一索引仍是最终防线。
func (s *IdentityService) generateInto(ctx context.Context, repo repository.VirtualIdentityRepository,
	adapter platform.Adapter, vi *model.VirtualIdentity) error {
	for i := 0; i < maxIDGenerateAttempts; i++ {
		candidate := adapter.GenerateVirtualID()
		exists, err := repo.Exists(ctx, candidate)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		vi.VirtualMemberID = candidate
		return repo.Create(ctx, vi)
	}
	return errs.ErrIdentityExhausted
}

// Resolve 由虚拟ID反查真实账户。
func (s *IdentityService) Resolve(ctx context.Context, virtualID string) (*model.Account, error) {
	return s.ResolveInTx(ctx, s.db, virtualID)
}

func (s *IdentityService) ResolveInTx(ctx context.Context, tx *gorm.DB, virtualID string) (*model.Account, error) {
	vi, err := s.identities.WithTx(tx).FindByVirtualID(ctx, virtualID)
	if err != nil {
		return nil, err
	}
	return s.accounts.WithTx(tx).GetByID(ctx, vi.RealAccountID)
}

// RecordUsage 使用计数+1 并刷新最后使用时间；幂等调用安全。
func (s *IdentityService) RecordUsage(ctx context.Context, virtualID string) error {
	return s.identities.RecordUsage(ctx, virtualID)
}
