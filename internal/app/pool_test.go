package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/config"
	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
	"github.com/DanSamedov/api-smart-savings-sub000/internal/store"
)

type poolRepoStub struct {
	store.Repository

	pool   *domain.SavingsPool
	member bool

	createdPool    *domain.SavingsPool
	contributedAmt int64
}

func (s *poolRepoStub) CreatePool(ctx context.Context, pool *domain.SavingsPool) error {
	s.createdPool = pool
	return nil
}

func (s *poolRepoStub) FindPoolByID(ctx context.Context, poolID uuid.UUID) (*domain.SavingsPool, error) {
	if s.pool == nil {
		return nil, store.ErrPoolNotFound
	}
	return s.pool, nil
}

func (s *poolRepoStub) IsPoolMember(ctx context.Context, poolID, userID uuid.UUID) (bool, error) {
	return s.member, nil
}

func (s *poolRepoStub) ContributeToPool(ctx context.Context, userID, poolID uuid.UUID, amount int64) (int64, error) {
	s.contributedAmt = amount
	return s.pool.CurrentBalance + amount, nil
}

func (s *poolRepoStub) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return &domain.User{ID: userID, FirstName: "Ada"}, nil
}

func (s *poolRepoStub) ListPoolActivity(ctx context.Context, poolID uuid.UUID, limit int) ([]domain.PoolActivity, error) {
	return []domain.PoolActivity{{PoolID: poolID}}, nil
}

func TestCreatePool_RequiresName(t *testing.T) {
	repo := &poolRepoStub{}
	service := newTestService(repo, nil)

	_, err := service.CreatePool(context.Background(), uuid.New(), domain.CreatePoolRequest{
		Name:     "   ",
		Currency: "EUR",
	})
	if !errors.Is(err, ErrPoolNameRequired) {
		t.Fatalf("expected ErrPoolNameRequired, got %v", err)
	}
	if repo.createdPool != nil {
		t.Fatal("did not expect a pool to be created")
	}
}

func TestCreatePool_EnrollsCreator(t *testing.T) {
	repo := &poolRepoStub{}
	service := newTestService(repo, nil)
	userID := uuid.New()

	pool, err := service.CreatePool(context.Background(), userID, domain.CreatePoolRequest{
		Name:         "Vacation",
		TargetAmount: 100000,
		Currency:     "eur",
		Solo:         true,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if pool.CreatorID != userID {
		t.Fatal("expected the caller as creator")
	}
	if pool.Currency != domain.CurrencyEUR {
		t.Fatalf("expected normalized currency, got %s", pool.Currency)
	}
	if !pool.Solo {
		t.Fatal("expected a solo pool")
	}
}

func TestContributeToPool_PublishesInteractiveEvent(t *testing.T) {
	pool := &domain.SavingsPool{ID: uuid.New(), Name: "Travel Squad", CurrentBalance: 5000, Currency: domain.CurrencyEUR}
	repo := &poolRepoStub{pool: pool}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	producer := &publisherStub{}
	service := NewService(repo, nil, producer, NewWalletCache(nil, 0, logger), nil, logger, config.Config{ProjectionMaxOccurrences: 24})

	balance, err := service.ContributeToPool(context.Background(), uuid.New(), pool.ID, domain.PoolMutationRequest{Amount: 2500})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if balance != 7500 {
		t.Fatalf("expected new balance 7500, got %d", balance)
	}
	if len(producer.published) != 1 || producer.published[0] != domain.RoutingKeyContributionRecorded {
		t.Fatalf("expected one contribution event, got %v", producer.published)
	}
}

func TestListPoolActivity_RequiresMembership(t *testing.T) {
	repo := &poolRepoStub{member: false}
	service := newTestService(repo, nil)

	_, err := service.ListPoolActivity(context.Background(), uuid.New(), uuid.New(), 10)
	if !errors.Is(err, store.ErrMembershipNotFound) {
		t.Fatalf("expected ErrMembershipNotFound, got %v", err)
	}
}

func TestListPoolActivity_MembersCanRead(t *testing.T) {
	repo := &poolRepoStub{member: true}
	service := newTestService(repo, nil)

	activity, err := service.ListPoolActivity(context.Background(), uuid.New(), uuid.New(), 10)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(activity) != 1 {
		t.Fatalf("expected one activity entry, got %d", len(activity))
	}
}
