package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fabrica is a row of the origin "fabrica" table.
type Fabrica struct {
	ID     int64   `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name   string  `gorm:"column:nome_unidade"`
	CNPJ   string  `gorm:"column:cnpj_unidade"`
	Email  *string `gorm:"column:email_corporativo"`
	Status *bool   `gorm:"column:status"`
	Sector *string `gorm:"column:ramo"`
}

func (Fabrica) TableName() string {
	return "fabrica"
}

type Endereco struct {
	ID           int64   `gorm:"column:id;primaryKey;autoIncrement:false"`
	Cep          string  `gorm:"column:cep"`
	State        string  `gorm:"column:estado"`
	City         string  `gorm:"column:cidade"`
	Neighborhood string  `gorm:"column:bairro"`
	Street       string  `gorm:"column:rua"`
	Number       string  `gorm:"column:numero"`
	Complement   *string `gorm:"column:complemento"`
	FactoryID    int64   `gorm:"column:fk_fabrica"`
}

func (Endereco) TableName() string {
	return "endereco"
}

// Usuario carries the access level inline; the target normalizes it into
// access_type and user_account_access_type.
type Usuario struct {
	ID                    uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	Name                  string        `gorm:"column:nome"`
	Email                 string        `gorm:"column:email"`
	Password              string        `gorm:"column:senha"`
	CreatedOn             time.Time     `gorm:"column:data_criacao;type:date;autoCreateTime:false"`
	BirthDate             *time.Time    `gorm:"column:data_nascimento;type:date"`
	Status                string        `gorm:"column:status"`
	Gender                *string       `gorm:"column:genero"`
	ManagerID             uuid.NullUUID `gorm:"column:id_gerente;type:uuid"`
	FactoryID             int64         `gorm:"column:fk_fabrica"`
	AccessType            *int          `gorm:"column:tipo_acesso"`
	AccessTypeDescription *string       `gorm:"column:desc_tipoacesso"`
}

func (Usuario) TableName() string {
	return "usuario"
}

type Plano struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name        string          `gorm:"column:nome"`
	Price       decimal.Decimal `gorm:"column:valor;type:numeric(12,2)"`
	Description *string         `gorm:"column:descricao"`
	Duration    Interval        `gorm:"column:duracao"`
}

func (Plano) TableName() string {
	return "plano"
}

type MetodoPagamento struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement:false"`
	Kind string `gorm:"column:tipo_pagamento"`
}

func (MetodoPagamento) TableName() string {
	return "metodo_pagamento"
}

type Pagamento struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement:false"`
	Amount          decimal.Decimal `gorm:"column:valor;type:numeric(12,2)"`
	PaidAt          *time.Time      `gorm:"column:data_pagamento"`
	StartsAt        *time.Time      `gorm:"column:data_inicio"`
	ExpiresOn       *time.Time      `gorm:"column:data_vencimento"`
	Status          bool            `gorm:"column:status"`
	PlanID          *int64          `gorm:"column:fk_plano"`
	FactoryID       int64           `gorm:"column:fk_fabrica"`
	PaymentMethodID *int64          `gorm:"column:fk_metodopag"`
}

func (Pagamento) TableName() string {
	return "pagamento"
}

// OriginTables lists the origin tables in creation order.
func OriginTables() []any {
	return []any{&Fabrica{}, &Endereco{}, &Usuario{}, &Plano{}, &MetodoPagamento{}, &Pagamento{}}
}
