package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Factory struct {
	ID            int64      `gorm:"column:pk_id;primaryKey;autoIncrement:false"`
	CNPJ          string     `gorm:"column:cnpj;uniqueIndex"`
	Name          string     `gorm:"column:name"`
	Domain        string     `gorm:"column:domain"`
	DeactivatedAt *time.Time `gorm:"column:deactivated_at"`
	Description   *string    `gorm:"column:description"`
}

func (Factory) TableName() string {
	return "factory"
}

type Address struct {
	ID             int64   `gorm:"column:pk_id;primaryKey;autoIncrement:false"`
	Cep            string  `gorm:"column:cep"`
	State          string  `gorm:"column:state"`
	City           string  `gorm:"column:city"`
	Neighborhood   string  `gorm:"column:neighborhood"`
	Street         string  `gorm:"column:street"`
	BuildingNumber string  `gorm:"column:building_number"`
	Complement     *string `gorm:"column:complement"`
	FactoryID      int64   `gorm:"column:factory_id;not null"`
}

func (Address) TableName() string {
	return "address"
}

type Gender struct {
	ID   int64  `gorm:"column:pk_id;primaryKey;autoIncrement:false"`
	Name string `gorm:"column:name"`
}

func (Gender) TableName() string {
	return "gender"
}

type UserAccount struct {
	ID              uuid.UUID     `gorm:"column:pk_uuid;type:uuid;primaryKey"`
	Name            string        `gorm:"column:name"`
	Email           string        `gorm:"column:email"`
	Password        string        `gorm:"column:password"`
	CreatedAt       time.Time     `gorm:"column:created_at;autoCreateTime:false"`
	DateOfBirth     *time.Time    `gorm:"column:date_of_birth"`
	DeactivatedAt   *time.Time    `gorm:"column:deactivated_at"`
	GenderID        *int64        `gorm:"column:gender_id"`
	UserManagerUUID uuid.NullUUID `gorm:"column:user_manager_uuid;type:uuid"`
	FactoryID       int64         `gorm:"column:factory_id"`
}

func (UserAccount) TableName() string {
	return "user_account"
}

// AccessType ids are assigned by the target; name is the natural key.
type AccessType struct {
	ID          int64  `gorm:"column:pk_id;primaryKey;autoIncrement"`
	Name        string `gorm:"column:name;uniqueIndex"`
	Description string `gorm:"column:description"`
}

func (AccessType) TableName() string {
	return "access_type"
}

type UserAccountAccessType struct {
	UserAccountUUID uuid.UUID `gorm:"column:user_account_uuid;type:uuid;primaryKey"`
	AccessTypeID    int64     `gorm:"column:access_type_id;primaryKey;autoIncrement:false"`
}

func (UserAccountAccessType) TableName() string {
	return "user_account_access_type"
}

type Subscription struct {
	ID              int64           `gorm:"column:pk_id;primaryKey;autoIncrement:false"`
	Name            string          `gorm:"column:name"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Description     *string         `gorm:"column:description"`
	MonthlyDuration int             `gorm:"column:monthly_duration"`
}

func (Subscription) TableName() string {
	return "subscription"
}

type PaymentMethod struct {
	ID   int64  `gorm:"column:pk_id;primaryKey;autoIncrement:false"`
	Name string `gorm:"column:name"`
}

func (PaymentMethod) TableName() string {
	return "payment_method"
}

type Payment struct {
	ID              int64           `gorm:"column:pk_id;primaryKey;autoIncrement:false"`
	Total           decimal.Decimal `gorm:"column:total;type:numeric(12,2)"`
	PaidAt          *time.Time      `gorm:"column:paid_at"`
	StartsAt        *time.Time      `gorm:"column:starts_at"`
	ExpiresOn       *time.Time      `gorm:"column:expires_on"`
	IsActive        bool            `gorm:"column:is_active"`
	IsExpired       bool            `gorm:"column:is_expired"`
	SubscriptionID  *int64          `gorm:"column:subscription_id"`
	UserAccountUUID uuid.UUID       `gorm:"column:user_account_uuid;type:uuid"`
	PaymentMethodID *int64          `gorm:"column:payment_method_id"`
}

func (Payment) TableName() string {
	return "payment"
}

// TargetTables lists the target tables in dependency order. The sync never
// creates them; this is for dev seeding and tests.
func TargetTables() []any {
	return []any{
		&Factory{}, &Address{}, &Gender{}, &UserAccount{}, &AccessType{},
		&UserAccountAccessType{}, &Subscription{}, &PaymentMethod{}, &Payment{},
	}
}
