//go:build integration

package payouts_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/angelmondragon/souq-backend/internal/ledger"
	"github.com/angelmondragon/souq-backend/internal/payouts"
	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/db"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/migrate"
)

func startPostgres(t *testing.T) *db.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "souq",
				"POSTGRES_PASSWORD": "souq",
				"POSTGRES_DB":       "souq",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	client, err := db.New(ctx, config.DBConfig{
		DSN:          fmt.Sprintf("postgres://souq:souq@%s:%s/souq?sslmode=disable", host, port.Port()),
		Driver:       config.DriverPostgres,
		MaxOpenConns: 20,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	require.NoError(t, migrate.Run(ctx, sqlDB, "", "up"))
	return client
}

func newPostgresServices(t *testing.T) (ledger.Service, payouts.Service) {
	client := startPostgres(t)
	logg := logger.New(logger.Options{ServiceName: "payouts-integration", Output: io.Discard})

	wallets, err := ledger.NewService(ledger.NewRepository(client.DB()), client, logg, ledger.Options{})
	require.NoError(t, err)
	svc, err := payouts.NewService(payouts.NewRepository(client.DB()), client, wallets, logg, payouts.Options{AdminWalletID: uuid.New()})
	require.NoError(t, err)
	return wallets, svc
}

func TestConcurrentEarningTriggersCreditOnce(t *testing.T) {
	_, svc := newPostgresServices(t)
	ctx := context.Background()
	vendorID := uuid.New()
	input := payouts.EarningInput{
		VendorID:    vendorID,
		OrderID:     uuid.New(),
		OrderNumber: "ORD-INTEGRATION",
		Amount:      decimal.RequireFromString("40"),
	}

	var wg sync.WaitGroup
	earnings := make(chan *models.VendorEarning, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			earning, err := svc.CreateVendorEarning(ctx, input)
			if err == nil {
				earnings <- earning
			}
		}()
	}
	wg.Wait()
	close(earnings)

	ids := map[uuid.UUID]struct{}{}
	for earning := range earnings {
		ids[earning.ID] = struct{}{}
	}
	assert.Len(t, ids, 1)

	wallet, err := svc.GetVendorWallet(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, "36.000", wallet.AvailableBalance.StringFixed(3))
	assert.Equal(t, "36.000", wallet.TotalEarned.StringFixed(3))
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	wallets, _ := newPostgresServices(t)
	ctx := context.Background()
	owner := uuid.New()

	_, err := wallets.Credit(ctx, ledger.CreditInput{
		OwnerID: owner,
		Amount:  decimal.RequireFromString("50"),
		Method:  "card",
	})
	require.NoError(t, err)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := wallets.Debit(ctx, ledger.DebitInput{
				OwnerID:     owner,
				Amount:      decimal.RequireFromString("10"),
				Description: "concurrent debit",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case pkgerrors.IsCode(err, pkgerrors.CodeInsufficient):
				insufficient++
			default:
				t.Errorf("unexpected debit error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 5, insufficient)
	wallet, err := wallets.GetOrCreate(ctx, owner)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero(), wallet.Balance.String())
}
