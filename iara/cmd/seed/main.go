// Command seed creates the origin, target and audit tables in local
// databases and fills the origin with sample rows. Development only.
package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"iara.com/iarasync/config"
	"iara.com/iarasync/core"
	"iara.com/iarasync/iara/model"
	"iara.com/iarasync/infrastructure/devops"
	"iara.com/iarasync/logging"
	"iara.com/iarasync/utils"
)

func main() {
	log := logging.Default()
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("IARA_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	provider, err := devops.NewProvider(cfg.Provider, cfg.Dialect)
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	source := open(ctx, provider, cfg.Source)
	defer source.Close()
	target := open(ctx, provider, cfg.Target)
	defer target.Close()

	createTables(source.DB, model.OriginTables()...)
	createTables(target.DB, append(model.TargetTables(), &model.SyncRun{})...)

	if err := insertSamples(source.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to insert sample rows")
	}
	log.Info().Str("source", cfg.Source).Str("target", cfg.Target).Msg("seeded")
}

func open(ctx context.Context, provider devops.Provider, name string) *core.Store {
	entry, err := provider.Lookup(ctx, name)
	if err != nil {
		logging.Default().Fatal().Err(err).Send()
	}
	store, err := core.OpenStore(ctx, core.Dialect(entry.Dialect), entry.DSN(), false, core.LogLevelInfo)
	if err != nil {
		logging.Default().Fatal().Err(err).Str("store", name).Msg("failed to open")
	}
	return store
}

func createTables(db *gorm.DB, models ...any) {
	for _, m := range models {
		if !db.Migrator().HasTable(m) {
			if err := db.Migrator().CreateTable(m); err != nil {
				logging.Default().Fatal().Err(err).Msgf("failed to create table for %T", m)
			}
		}
	}
}

func date(s string) *time.Time {
	return utils.Ptr(utils.MustParseDate(s))
}

// insertSamples is safe to rerun; existing keys are left alone.
func insertSamples(db *gorm.DB) error {
	ana := uuid.MustParse("6f1c1c2e-52f6-4c55-9d43-0e4e3b0f3a11")
	bruno := uuid.MustParse("8a3b5e0d-1d2c-4d8e-bc5a-2f6d7e8f9a22")

	rows := []any{
		&[]model.Fabrica{
			{ID: 1, Name: "Fábrica Norte", CNPJ: "11.111.111/0001-11", Email: utils.Ptr("contato@norte.com.br"), Status: utils.Ptr(true), Sector: utils.Ptr("Têxtil")},
			{ID: 2, Name: "Fábrica Sul", CNPJ: "22.222.222/0001-22", Email: utils.Ptr("financeiro@sul.ind.br"), Status: utils.Ptr(false), Sector: utils.Ptr("Alimentos")},
		},
		&[]model.Endereco{
			{ID: 1, Cep: "01001-000", State: "SP", City: "São Paulo", Neighborhood: "Sé", Street: "Praça da Sé", Number: "100", FactoryID: 1},
			{ID: 2, Cep: "90010-000", State: "RS", City: "Porto Alegre", Neighborhood: "Centro", Street: "Rua dos Andradas", Number: "1234", Complement: utils.Ptr("Sala 5"), FactoryID: 2},
		},
		&[]model.Usuario{
			{
				ID: ana, Name: "Ana Souza", Email: "ana@norte.com.br", Password: "$2a$10$seed",
				CreatedOn: utils.MustParseDate("2024-02-10"), BirthDate: date("1990-04-01"), Status: "Ativo",
				Gender: utils.Ptr("fem"), FactoryID: 1, AccessType: utils.Ptr(1), AccessTypeDescription: utils.Ptr("Administrador"),
			},
			{
				ID: bruno, Name: "Bruno Lima", Email: "bruno@sul.ind.br", Password: "$2a$10$seed",
				CreatedOn: utils.MustParseDate("2024-03-11"), Status: "Inativo",
				Gender: utils.Ptr("masc"), ManagerID: uuid.NullUUID{UUID: ana, Valid: true}, FactoryID: 2,
				AccessType: utils.Ptr(4), AccessTypeDescription: utils.Ptr("Visualizador"),
			},
		},
		&[]model.Plano{
			{ID: 1, Name: "Mensal", Price: decimal.RequireFromString("99.90"), Duration: model.Days(30)},
			{ID: 2, Name: "Anual", Price: decimal.RequireFromString("999.00"), Duration: model.Days(365)},
		},
		&[]model.MetodoPagamento{{ID: 1, Kind: "Pix"}, {ID: 2, Kind: "Cartão de crédito"}},
		&[]model.Pagamento{
			{ID: 1, Amount: decimal.RequireFromString("99.90"), PaidAt: date("2024-06-01"), StartsAt: date("2024-06-01"), ExpiresOn: date("2024-07-01"), Status: true, PlanID: utils.Ptr(int64(1)), FactoryID: 1, PaymentMethodID: utils.Ptr(int64(1))},
			{ID: 2, Amount: decimal.RequireFromString("999.00"), Status: false, PlanID: utils.Ptr(int64(2)), FactoryID: 2, PaymentMethodID: utils.Ptr(int64(2))},
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, r := range rows {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(r).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
