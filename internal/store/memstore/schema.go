package memstore

import (
	"github.com/hashicorp/go-memdb"
)

const (
	tenantTable     = "tenants"
	industryTable   = "industries"
	moduleTable     = "modules"
	grantTable      = "tenant_modules"
	userTable       = "users"
	membershipTable = "memberships"
	inviteTable     = "invites"

	pk = "id"
)

func idIndex() *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:    pk,
		Unique:  true,
		Indexer: &memdb.StringFieldIndex{Field: "ID"},
	}
}

func fieldIndex(name, field string, unique bool) *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:    name,
		Unique:  unique,
		Indexer: &memdb.StringFieldIndex{Field: field},
	}
}

func pairIndex(name, first, second string) *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:   name,
		Unique: true,
		Indexer: &memdb.CompoundIndex{
			Indexes: []memdb.Indexer{
				&memdb.StringFieldIndex{Field: first},
				&memdb.StringFieldIndex{Field: second},
			},
		},
	}
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tenantTable: {
				Name: tenantTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk:     idIndex(),
					"code": fieldIndex("code", "Code", true),
				},
			},
			industryTable: {
				Name: industryTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk:     idIndex(),
					"code": fieldIndex("code", "Code", true),
				},
			},
			moduleTable: {
				Name: moduleTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk:            idIndex(),
					"industry_id": fieldIndex("industry_id", "IndustryID", false),
				},
			},
			grantTable: {
				Name: grantTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk:              idIndex(),
					"tenant_module": pairIndex("tenant_module", "TenantID", "ModuleID"),
					"tenant_id":     fieldIndex("tenant_id", "TenantID", false),
					"module_id":     fieldIndex("module_id", "ModuleID", false),
				},
			},
			userTable: {
				Name: userTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk: idIndex(),
					"email": {
						Name:    "email",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Email", Lowercase: true},
					},
				},
			},
			membershipTable: {
				Name: membershipTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk:            idIndex(),
					"tenant_user": pairIndex("tenant_user", "TenantID", "UserID"),
					"tenant_id":   fieldIndex("tenant_id", "TenantID", false),
					"user_id":     fieldIndex("user_id", "UserID", false),
				},
			},
			inviteTable: {
				Name: inviteTable,
				Indexes: map[string]*memdb.IndexSchema{
					pk:           idIndex(),
					"token_hash": fieldIndex("token_hash", "TokenHash", true),
					"tenant_id":  fieldIndex("tenant_id", "TenantID", false),
				},
			},
		},
	}
}
