// Command buildmodels generates structs for the target tables so drift
// between iara/model and the live schema shows up in a diff.
package main

import (
	"context"
	"os"

	"gorm.io/gen"
	"gorm.io/gorm"

	"iara.com/iarasync/config"
	"iara.com/iarasync/core"
	"iara.com/iarasync/iara/model"
	"iara.com/iarasync/infrastructure/devops"
	"iara.com/iarasync/logging"
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
	entry, err := provider.Lookup(ctx, cfg.Target)
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	store, err := core.OpenStore(ctx, core.Dialect(entry.Dialect), entry.DSN(), true, core.LogLevelError)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open target")
	}
	defer store.Close()

	outPath := os.Getenv("OUT_PATH")
	if outPath == "" {
		outPath = "../../../gen/targetmodels"
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:      outPath,
		ModelPkgPath: "targetmodels",
		Mode:         gen.WithoutContext | gen.WithDefaultQuery | gen.WithQueryInterface,
	})

	g.WithDataTypeMap(map[string]func(gorm.ColumnType) (dataType string){
		"numeric": func(gorm.ColumnType) string {
			return "decimal.Decimal"
		},
		"uuid": func(gorm.ColumnType) string {
			return "uuid.UUID"
		},
	})
	g.WithImportPkgPath("github.com/google/uuid", "github.com/shopspring/decimal")

	g.UseDB(store.DB)

	var models []any
	for _, table := range model.TargetTables() {
		name := table.(interface{ TableName() string }).TableName()
		models = append(models, g.GenerateModel(name))
	}
	g.ApplyBasic(models...)

	g.Execute()
	log.Info().Str("out", outPath).Int("tables", len(models)).Msg("models generated")
}
