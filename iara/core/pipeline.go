package core

import (
	"context"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"iara.com/iarasync/core"
	"iara.com/iarasync/iara/model"
	"iara.com/iarasync/utils"
)

// Stage names, in run order.
const (
	StageFactory       = "Factory"
	StageAddress       = "Address"
	StageGender        = "Gender"
	StageUserAccount   = "User Account"
	StageAccessType    = "Access Type"
	StageUserAccess    = "User -> AccessType"
	StageSubscription  = "Subscription"
	StagePaymentMethod = "Payment Method"
	StagePayment       = "Payment"
)

var (
	FactoryTarget = core.Target{
		Entity:    "Factory",
		Table:     "factory",
		Conflict:  []string{"pk_id"},
		Overwrite: []string{"cnpj", "name", "domain", "deactivated_at", "description"},
	}
	AddressTarget = core.Target{
		Entity:    "Address",
		Table:     "address",
		Conflict:  []string{"pk_id"},
		Overwrite: []string{"cep", "state", "city", "neighborhood", "street", "building_number", "complement", "factory_id"},
	}
	GenderTarget = core.Target{
		Entity:    "Gender",
		Table:     "gender",
		Conflict:  []string{"pk_id"},
		Overwrite: []string{"name"},
	}
	UserAccountTarget = core.Target{
		Entity:   "User",
		Table:    "user_account",
		Conflict: []string{"pk_uuid"},
		Overwrite: []string{
			"name", "email", "password", "created_at", "date_of_birth",
			"deactivated_at", "gender_id", "user_manager_uuid", "factory_id",
		},
	}
	AccessTypeTarget = core.Target{
		Entity:    "AccessType",
		Table:     "access_type",
		Conflict:  []string{"name"},
		Overwrite: []string{"description"},
	}
	UserAccessTarget = core.Target{
		Entity:   "UserAccess",
		Table:    "user_account_access_type",
		Conflict: []string{"user_account_uuid", "access_type_id"},
	}
	SubscriptionTarget = core.Target{
		Entity:    "Subscription",
		Table:     "subscription",
		Conflict:  []string{"pk_id"},
		Overwrite: []string{"name", "price", "description", "monthly_duration"},
	}
	PaymentMethodTarget = core.Target{
		Entity:    "PaymentMethod",
		Table:     "payment_method",
		Conflict:  []string{"pk_id"},
		Overwrite: []string{"name"},
	}
	PaymentTarget = core.Target{
		Entity:   "Payment",
		Table:    "payment",
		Conflict: []string{"pk_id"},
		Overwrite: []string{
			"total", "paid_at", "starts_at", "expires_on", "is_active", "is_expired",
			"subscription_id", "user_account_uuid", "payment_method_id",
		},
	}
)

// AccessTypeSource is one distinct (code, description) pair seen on users.
type AccessTypeSource struct {
	Code        int
	Description string
}

// Pipeline declares every entity sync in dependency order.
func Pipeline(state *RunState) []core.Stage {
	return []core.Stage{
		&core.EntitySync[model.Fabrica, model.Factory]{
			Name:    StageFactory,
			Target:  FactoryTarget,
			Extract: extractAll[model.Fabrica]("id"),
			Prepare: func(ctx context.Context, tx *gorm.DB) (err error) {
				state.FactoryDeactivations, err = DeactivationIndex(ctx, tx, "factory", "pk_id")
				return err
			},
			Transform: func(ctx context.Context, tx *gorm.DB, row model.Fabrica) (model.Factory, error) {
				key := idKey(row.ID)
				return model.Factory{
					ID:            row.ID,
					CNPJ:          row.CNPJ,
					Name:          row.Name,
					Domain:        ExtractDomain(row.Email),
					DeactivatedAt: DeactivatedAt(FactoryActive(row.Status), existing(state.FactoryDeactivations, key), state.Now),
					Description:   row.Sector,
				}, nil
			},
			Key: func(row model.Fabrica) string { return idKey(row.ID) },
		},
		&core.EntitySync[model.Endereco, model.Address]{
			Name:    StageAddress,
			Target:  AddressTarget,
			Extract: extractAll[model.Endereco]("id"),
			Transform: func(ctx context.Context, tx *gorm.DB, row model.Endereco) (model.Address, error) {
				return model.Address{
					ID:             row.ID,
					Cep:            row.Cep,
					State:          row.State,
					City:           row.City,
					Neighborhood:   row.Neighborhood,
					Street:         row.Street,
					BuildingNumber: row.Number,
					Complement:     row.Complement,
					FactoryID:      row.FactoryID,
				}, nil
			},
			Key: func(row model.Endereco) string { return idKey(row.ID) },
		},
		&core.EntitySync[string, model.Gender]{
			Name:    StageGender,
			Target:  GenderTarget,
			Extract: extractGenders,
			Transform: func(ctx context.Context, tx *gorm.DB, raw string) (model.Gender, error) {
				return model.Gender{ID: state.RegisterGender(raw), Name: GenderLabel(raw)}, nil
			},
			Key: func(raw string) string { return raw },
		},
		&core.EntitySync[model.Usuario, model.UserAccount]{
			Name:   StageUserAccount,
			Target: UserAccountTarget,
			Extract: func(ctx context.Context, source *gorm.DB) ([]model.Usuario, error) {
				users, err := extractAll[model.Usuario]("id")(ctx, source)
				state.Users = users
				return users, err
			},
			Prepare: func(ctx context.Context, tx *gorm.DB) (err error) {
				state.UserDeactivations, err = DeactivationIndex(ctx, tx, "user_account", "pk_uuid")
				return err
			},
			Transform: func(ctx context.Context, tx *gorm.DB, row model.Usuario) (model.UserAccount, error) {
				return model.UserAccount{
					ID:              row.ID,
					Name:            row.Name,
					Email:           row.Email,
					Password:        row.Password,
					CreatedAt:       CreatedAt(row.CreatedOn),
					DateOfBirth:     row.BirthDate,
					DeactivatedAt:   DeactivatedAt(UserActive(row.Status), existing(state.UserDeactivations, row.ID.String()), state.Now),
					GenderID:        state.GenderID(row.Gender),
					UserManagerUUID: managerOf(row.ManagerID),
					FactoryID:       row.FactoryID,
				}, nil
			},
			Key: func(row model.Usuario) string { return row.ID.String() },
		},
		&core.EntitySync[AccessTypeSource, model.AccessType]{
			Name:   StageAccessType,
			Target: AccessTypeTarget,
			Extract: func(ctx context.Context, source *gorm.DB) ([]AccessTypeSource, error) {
				return AccessTypeCatalog(state.Users), nil
			},
			Transform: func(ctx context.Context, tx *gorm.DB, row AccessTypeSource) (model.AccessType, error) {
				label := AccessTypeFor(&row.Code)
				return model.AccessType{Name: label.Name, Description: label.Description}, nil
			},
			Key: func(row AccessTypeSource) string { return AccessTypeFor(&row.Code).Name },
		},
		&core.EntitySync[model.Usuario, model.UserAccountAccessType]{
			Name:   StageUserAccess,
			Target: UserAccessTarget,
			Extract: func(ctx context.Context, source *gorm.DB) ([]model.Usuario, error) {
				return state.Users, nil
			},
			Prepare: func(ctx context.Context, tx *gorm.DB) (err error) {
				state.AccessTypeIDs, err = AccessTypeIDs(ctx, tx)
				return err
			},
			Transform: func(ctx context.Context, tx *gorm.DB, row model.Usuario) (model.UserAccountAccessType, error) {
				label := AccessTypeFor(row.AccessType)
				id, ok := state.AccessTypeIDs[label.Name]
				if !ok {
					return model.UserAccountAccessType{}, core.NewUnresolved(UserAccessTarget.Entity, row.ID.String(), "access type "+label.Name+" not in target")
				}
				return model.UserAccountAccessType{UserAccountUUID: row.ID, AccessTypeID: id}, nil
			},
			Key: func(row model.Usuario) string { return row.ID.String() },
		},
		&core.EntitySync[model.Plano, model.Subscription]{
			Name:    StageSubscription,
			Target:  SubscriptionTarget,
			Extract: extractAll[model.Plano]("id"),
			Transform: func(ctx context.Context, tx *gorm.DB, row model.Plano) (model.Subscription, error) {
				return model.Subscription{
					ID:              row.ID,
					Name:            row.Name,
					Price:           row.Price,
					Description:     row.Description,
					MonthlyDuration: MonthlyDuration(row.Duration),
				}, nil
			},
			Key: func(row model.Plano) string { return idKey(row.ID) },
		},
		&core.EntitySync[model.MetodoPagamento, model.PaymentMethod]{
			Name:    StagePaymentMethod,
			Target:  PaymentMethodTarget,
			Extract: extractAll[model.MetodoPagamento]("id"),
			Transform: func(ctx context.Context, tx *gorm.DB, row model.MetodoPagamento) (model.PaymentMethod, error) {
				return model.PaymentMethod{ID: row.ID, Name: row.Kind}, nil
			},
			Key: func(row model.MetodoPagamento) string { return idKey(row.ID) },
		},
		&core.EntitySync[model.Pagamento, model.Payment]{
			Name:    StagePayment,
			Target:  PaymentTarget,
			Extract: extractAll[model.Pagamento]("id"),
			Prepare: func(ctx context.Context, tx *gorm.DB) error {
				state.Resolver = NewResolver()
				return nil
			},
			Transform: func(ctx context.Context, tx *gorm.DB, row model.Pagamento) (model.Payment, error) {
				userID, ok, err := state.Resolver.PrimaryUser(ctx, tx, row.FactoryID)
				if err != nil {
					return model.Payment{}, err
				}
				if !ok {
					return model.Payment{}, core.NewUnresolved(PaymentTarget.Entity, idKey(row.ID), "no eligible user for factory "+idKey(row.FactoryID))
				}
				return model.Payment{
					ID:              row.ID,
					Total:           row.Amount,
					PaidAt:          row.PaidAt,
					StartsAt:        row.StartsAt,
					ExpiresOn:       row.ExpiresOn,
					IsActive:        row.Status,
					IsExpired:       !row.Status,
					SubscriptionID:  row.PlanID,
					UserAccountUUID: userID,
					PaymentMethodID: row.PaymentMethodID,
				}, nil
			},
			Key: func(row model.Pagamento) string { return idKey(row.ID) },
		},
	}
}

func extractAll[T any](order string) func(ctx context.Context, source *gorm.DB) ([]T, error) {
	return func(ctx context.Context, source *gorm.DB) ([]T, error) {
		var rows []T
		if err := source.WithContext(ctx).Order(order).Find(&rows).Error; err != nil {
			return nil, err
		}
		return rows, nil
	}
}

func extractGenders(ctx context.Context, source *gorm.DB) ([]string, error) {
	var raws []string
	err := source.WithContext(ctx).
		Model(&model.Usuario{}).
		Distinct("genero").
		Where("genero IS NOT NULL").
		Order("genero").
		Pluck("genero", &raws).Error
	return raws, err
}

// AccessTypeCatalog collects the distinct access levels of users that carry
// both a code and a description, ordered by code.
func AccessTypeCatalog(users []model.Usuario) []AccessTypeSource {
	labelled := utils.Filter(users, func(u model.Usuario) bool {
		return u.AccessType != nil && *u.AccessType != 0 &&
			u.AccessTypeDescription != nil && *u.AccessTypeDescription != ""
	})
	pairs := utils.Map(labelled, func(u model.Usuario) AccessTypeSource {
		return AccessTypeSource{Code: *u.AccessType, Description: *u.AccessTypeDescription}
	})
	out := utils.Distinct(pairs, func(p AccessTypeSource) AccessTypeSource { return p })

	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Description < out[j].Description
	})
	return out
}

func managerOf(id uuid.NullUUID) uuid.NullUUID {
	if !id.Valid || id.UUID == uuid.Nil {
		return uuid.NullUUID{}
	}
	return id
}

func idKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
