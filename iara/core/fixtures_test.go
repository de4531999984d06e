package core

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"iara.com/iarasync/iara/model"
	"iara.com/iarasync/utils"
)

var (
	userAna   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	userBruno = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	userCaio  = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func openDB(t *testing.T, name string, tables ...any) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), name+".db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	for _, table := range tables {
		require.NoError(t, db.Migrator().CreateTable(table))
	}
	return db
}

func openStores(t *testing.T) (source, target *gorm.DB) {
	t.Helper()
	source = openDB(t, "origin", model.OriginTables()...)
	target = openDB(t, "target", append(model.TargetTables(), &model.SyncRun{})...)
	return source, target
}

func day(s string) time.Time {
	return utils.MustParseDate(s)
}

// seedOrigin writes three factories: 1 active with two users, 2 inactive
// with a user that has no access level, 3 without users.
func seedOrigin(t *testing.T, db *gorm.DB) {
	t.Helper()

	factories := []model.Fabrica{
		{ID: 1, Name: "Fábrica Norte", CNPJ: "11.111.111/0001-11", Email: utils.Ptr("contato@norte.com.br"), Status: utils.Ptr(true), Sector: utils.Ptr("Têxtil")},
		{ID: 2, Name: "Fábrica Sul", CNPJ: "22.222.222/0001-22", Email: utils.Ptr("semdominio"), Status: utils.Ptr(false)},
		{ID: 3, Name: "Fábrica Leste", CNPJ: "33.333.333/0001-33"},
	}
	require.NoError(t, db.Create(&factories).Error)

	addresses := []model.Endereco{
		{ID: 1, Cep: "01001-000", State: "SP", City: "São Paulo", Neighborhood: "Sé", Street: "Praça da Sé", Number: "100", FactoryID: 1},
	}
	require.NoError(t, db.Create(&addresses).Error)

	users := []model.Usuario{
		{
			ID: userAna, Name: "Ana", Email: "ana@norte.com.br", Password: "hash-a",
			CreatedOn: day("2024-02-10"), BirthDate: utils.Ptr(day("1990-04-01")), Status: "Ativo",
			Gender: utils.Ptr("fem"), FactoryID: 1,
			AccessType: utils.Ptr(1), AccessTypeDescription: utils.Ptr("adm"),
		},
		{
			ID: userBruno, Name: "Bruno", Email: "bruno@norte.com.br", Password: "hash-b",
			CreatedOn: day("2024-03-11"), Status: "Inativo",
			Gender: utils.Ptr("masc"), ManagerID: uuid.NullUUID{UUID: userAna, Valid: true}, FactoryID: 1,
			AccessType: utils.Ptr(2), AccessTypeDescription: utils.Ptr("sup"),
		},
		{
			ID: userCaio, Name: "Caio", Email: "caio@sul.com.br", Password: "hash-c",
			CreatedOn: day("2024-05-20"), Status: "Ativo",
			Gender: utils.Ptr("nb"), FactoryID: 2,
		},
	}
	require.NoError(t, db.Create(&users).Error)

	plans := []model.Plano{
		{ID: 1, Name: "Trimestral", Price: decimal.RequireFromString("299.90"), Duration: model.Days(95)},
		{ID: 2, Name: "Teste", Price: decimal.Zero, Duration: model.Days(29)},
	}
	require.NoError(t, db.Create(&plans).Error)

	methods := []model.MetodoPagamento{{ID: 1, Kind: "Pix"}}
	require.NoError(t, db.Create(&methods).Error)

	payments := []model.Pagamento{
		{ID: 1, Amount: decimal.RequireFromString("299.90"), PaidAt: utils.Ptr(day("2024-06-01")), Status: true, PlanID: utils.Ptr(int64(1)), FactoryID: 1, PaymentMethodID: utils.Ptr(int64(1))},
		{ID: 2, Amount: decimal.RequireFromString("10"), Status: false, PlanID: utils.Ptr(int64(2)), FactoryID: 2, PaymentMethodID: utils.Ptr(int64(1))},
		{ID: 3, Amount: decimal.RequireFromString("10"), Status: true, PlanID: utils.Ptr(int64(2)), FactoryID: 3, PaymentMethodID: utils.Ptr(int64(1))},
	}
	require.NoError(t, db.Create(&payments).Error)
}

type targetSnapshot struct {
	Factories     []model.Factory
	Addresses     []model.Address
	Genders       []model.Gender
	Users         []model.UserAccount
	AccessTypes   []model.AccessType
	Links         []model.UserAccountAccessType
	Subscriptions []model.Subscription
	Methods       []model.PaymentMethod
	Payments      []model.Payment
}

func snapshot(t *testing.T, db *gorm.DB) targetSnapshot {
	t.Helper()
	var s targetSnapshot
	require.NoError(t, db.Order("pk_id").Find(&s.Factories).Error)
	require.NoError(t, db.Order("pk_id").Find(&s.Addresses).Error)
	require.NoError(t, db.Order("pk_id").Find(&s.Genders).Error)
	require.NoError(t, db.Order("pk_uuid").Find(&s.Users).Error)
	require.NoError(t, db.Order("pk_id").Find(&s.AccessTypes).Error)
	require.NoError(t, db.Order("user_account_uuid, access_type_id").Find(&s.Links).Error)
	require.NoError(t, db.Order("pk_id").Find(&s.Subscriptions).Error)
	require.NoError(t, db.Order("pk_id").Find(&s.Methods).Error)
	require.NoError(t, db.Order("pk_id").Find(&s.Payments).Error)
	return s
}
