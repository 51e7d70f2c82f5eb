// Package db provides a BlockchainContext persisted to SQLite through GORM.
// It backs local deployments that must survive across process runs.
package db

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/govm-net/greeter/context"
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultDBPath = "./chain.db"

type DBBlock struct {
	gorm.Model
	Height uint64 `gorm:"column:height;not null;unique;index"`
	Time   int64  `gorm:"column:block_time;not null"`
	Hash   string `gorm:"column:block_hash;not null;unique;index;size:66"`
}

func (DBBlock) TableName() string {
	return "blocks"
}

type DBTransaction struct {
	gorm.Model
	Hash        string `gorm:"column:tx_hash;not null;unique;index;size:66"`
	BlockHeight uint64 `gorm:"column:block_height;not null;index"`
	FromAddress string `gorm:"column:from_address;not null;index;size:42"`
	ToAddress   string `gorm:"column:to_address;not null;index;size:42"`
	Value       uint64 `gorm:"column:value;not null"`
}

func (DBTransaction) TableName() string {
	return "transactions"
}

// DBObject represents a state object in the database
type DBObject struct {
	gorm.Model
	ObjectID string `gorm:"column:object_id;not null;unique;index;size:66"`
	Owner    string `gorm:"column:owner_address;not null;index;size:42"`
	Contract string `gorm:"column:contract_address;not null;index;size:42"`
}

func (DBObject) TableName() string {
	return "objects"
}

// DBObjectField represents one field of a state object
type DBObjectField struct {
	gorm.Model
	ObjectID string `gorm:"column:object_id;not null;index;size:66"`
	Key      string `gorm:"column:field_key;not null;index;size:255"`
	Value    []byte `gorm:"column:field_value;type:blob;not null"`
}

func (DBObjectField) TableName() string {
	return "object_fields"
}

// DBBalance represents an account balance
type DBBalance struct {
	Address string `gorm:"column:address;primaryKey;size:42"`
	Amount  uint64 `gorm:"column:balance;not null;default:0"`
}

func (DBBalance) TableName() string {
	return "balances"
}

// DBEvent represents a contract event
type DBEvent struct {
	gorm.Model
	BlockHeight uint64 `gorm:"column:block_height;not null;index"`
	TxHash      string `gorm:"column:tx_hash;not null;index;size:66"`
	Contract    string `gorm:"column:contract_address;not null;index;size:42"`
	EventName   string `gorm:"column:event_name;not null;index;size:255"`
	KeyValues   []byte `gorm:"column:key_values;type:blob;not null"` // JSON encoded key-value pairs
}

func (DBEvent) TableName() string {
	return "events"
}

// Context implements types.BlockchainContext on SQLite with GORM.
type Context struct {
	db *gorm.DB

	// Current transaction state
	blockHeight uint64
	blockTime   int64
	txHash      core.Hash
	sender      core.Address
	contract    core.Address
	nonce       uint64
}

func init() {
	context.Register(context.DBContextType, NewContext)
}

// NewContext creates a SQLite-backed blockchain context. Recognized params:
// "db_path" (string) selects the database file.
func NewContext(params map[string]any) types.BlockchainContext {
	dbPath := defaultDBPath
	if path, ok := params["db_path"].(string); ok && path != "" {
		dbPath = path
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		panic(fmt.Errorf("failed to create db directory: %w", err))
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Errorf("failed to open database: %w", err))
	}

	ctx := &Context{db: db}
	ctx.initDB()
	return ctx
}

func (c *Context) initDB() {
	err := c.db.AutoMigrate(
		&DBBlock{},
		&DBTransaction{},
		&DBObject{},
		&DBObjectField{},
		&DBBalance{},
		&DBEvent{},
	)
	if err != nil {
		panic(fmt.Errorf("failed to migrate database: %w", err))
	}
}

// Close releases the underlying database handle.
func (c *Context) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SetBlockInfo implements types.BlockchainContext
func (c *Context) SetBlockInfo(height uint64, time int64, hash core.Hash) error {
	c.blockHeight = height
	c.blockTime = time

	block := DBBlock{Height: height, Time: time, Hash: hash.String()}
	result := c.db.Where("height = ?", height).FirstOrCreate(&block)
	if result.Error != nil {
		return fmt.Errorf("failed to record block: %w", result.Error)
	}
	return nil
}

// SetTransactionInfo implements types.BlockchainContext
func (c *Context) SetTransactionInfo(hash core.Hash, from, to core.Address, value uint64) error {
	c.txHash = hash
	c.sender = from
	c.contract = to
	c.nonce = 0

	tx := DBTransaction{
		Hash:        hash.String(),
		BlockHeight: c.blockHeight,
		FromAddress: from.String(),
		ToAddress:   to.String(),
		Value:       value,
	}
	result := c.db.Where("tx_hash = ?", tx.Hash).FirstOrCreate(&tx)
	if result.Error != nil {
		return fmt.Errorf("failed to record transaction: %w", result.Error)
	}
	return nil
}

// BlockHeight implements types.BlockchainContext
func (c *Context) BlockHeight() uint64 {
	if c.blockHeight != 0 {
		return c.blockHeight
	}
	var height uint64
	c.db.Model(&DBBlock{}).Select("COALESCE(MAX(height), 0)").Scan(&height)
	return height
}

// BlockTime implements types.BlockchainContext
func (c *Context) BlockTime() int64 {
	return c.blockTime
}

// ContractAddress implements types.BlockchainContext
func (c *Context) ContractAddress() core.Address {
	return c.contract
}

// TransactionHash implements types.BlockchainContext
func (c *Context) TransactionHash() core.Hash {
	return c.txHash
}

// Sender implements types.BlockchainContext
func (c *Context) Sender() core.Address {
	return c.sender
}

// Balance implements types.BlockchainContext
func (c *Context) Balance(addr core.Address) uint64 {
	var balance DBBalance
	result := c.db.Where("address = ?", addr.String()).First(&balance)
	if result.Error == gorm.ErrRecordNotFound {
		return 0
	}
	if result.Error != nil {
		slog.Error("failed to get balance", "address", addr, "error", result.Error)
		return 0
	}
	return balance.Amount
}

// SetBalance seeds an account balance. Test and local-run helper.
func (c *Context) SetBalance(addr core.Address, amount uint64) error {
	balance := DBBalance{Address: addr.String(), Amount: amount}
	return c.db.Save(&balance).Error
}

// Transfer implements types.BlockchainContext
func (c *Context) Transfer(contract core.Address, from, to core.Address, amount uint64) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		var fromBalance DBBalance
		result := tx.Where("address = ?", from.String()).First(&fromBalance)
		if result.Error == gorm.ErrRecordNotFound {
			return fmt.Errorf("insufficient balance")
		} else if result.Error != nil {
			return fmt.Errorf("failed to get sender balance: %w", result.Error)
		}
		if fromBalance.Amount < amount {
			return fmt.Errorf("insufficient balance")
		}

		if err := tx.Model(&DBBalance{}).Where("address = ?", from.String()).
			Update("balance", fromBalance.Amount-amount).Error; err != nil {
			return fmt.Errorf("failed to update sender balance: %w", err)
		}

		var toBalance DBBalance
		result = tx.Where("address = ?", to.String()).First(&toBalance)
		if result.Error == gorm.ErrRecordNotFound {
			toBalance = DBBalance{Address: to.String(), Amount: amount}
			if err := tx.Create(&toBalance).Error; err != nil {
				return fmt.Errorf("failed to create recipient balance: %w", err)
			}
			return nil
		} else if result.Error != nil {
			return fmt.Errorf("failed to get recipient balance: %w", result.Error)
		}

		if err := tx.Model(&DBBalance{}).Where("address = ?", to.String()).
			Update("balance", toBalance.Amount+amount).Error; err != nil {
			return fmt.Errorf("failed to update recipient balance: %w", err)
		}
		return nil
	})
}

// CreateObject implements types.BlockchainContext
func (c *Context) CreateObject(contract core.Address) (types.VMObject, error) {
	c.nonce++
	seed := fmt.Sprintf("%s:%s:%d", c.txHash, c.sender, c.nonce)
	return c.CreateObjectWithID(contract, core.ObjectID(core.GetHash([]byte(seed))))
}

// CreateObjectWithID implements types.BlockchainContext
func (c *Context) CreateObjectWithID(contract core.Address, id core.ObjectID) (types.VMObject, error) {
	dbObj := &DBObject{
		ObjectID: id.String(),
		Owner:    contract.String(),
		Contract: contract.String(),
	}
	if err := c.db.Create(dbObj).Error; err != nil {
		return nil, fmt.Errorf("failed to create object: %w", err)
	}
	return &Object{ctx: c, id: id}, nil
}

// GetObject implements types.BlockchainContext
func (c *Context) GetObject(contract core.Address, id core.ObjectID) (types.VMObject, error) {
	var dbObj DBObject
	result := c.db.Where("object_id = ?", id.String()).First(&dbObj)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, core.ErrObjectNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get object: %w", result.Error)
	}
	return &Object{ctx: c, id: id}, nil
}

// GetObjectWithOwner implements types.BlockchainContext
func (c *Context) GetObjectWithOwner(contract, owner core.Address) (types.VMObject, error) {
	var dbObj DBObject
	result := c.db.Where("owner_address = ?", owner.String()).First(&dbObj)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, core.ErrObjectNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get object: %w", result.Error)
	}

	id, err := core.ObjectIDFromString(dbObj.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("corrupt object id %q: %w", dbObj.ObjectID, err)
	}
	return &Object{ctx: c, id: id}, nil
}

// DeleteObject implements types.BlockchainContext
func (c *Context) DeleteObject(contract core.Address, id core.ObjectID) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("object_id = ?", id.String()).Delete(&DBObject{}).Error; err != nil {
			return fmt.Errorf("failed to delete object: %w", err)
		}
		if err := tx.Where("object_id = ?", id.String()).Delete(&DBObjectField{}).Error; err != nil {
			return fmt.Errorf("failed to delete object fields: %w", err)
		}
		return nil
	})
}

// Log implements types.BlockchainContext. Events are persisted to the
// events table in addition to the structured log.
func (c *Context) Log(contract core.Address, eventName string, keyValues ...any) {
	encoded, err := json.Marshal(keyValues)
	if err != nil {
		slog.Error("failed to encode event", "event", eventName, "error", err)
		encoded = []byte("[]")
	}

	event := DBEvent{
		BlockHeight: c.blockHeight,
		TxHash:      c.txHash.String(),
		Contract:    contract.String(),
		EventName:   eventName,
		KeyValues:   encoded,
	}
	if err := c.db.Create(&event).Error; err != nil {
		slog.Error("failed to persist event", "event", eventName, "error", err)
	}

	params := []any{
		"contract", contract,
		"event", eventName,
	}
	params = append(params, keyValues...)
	slog.Info("contract event", params...)
}

// Events returns the persisted events for a contract, oldest first.
func (c *Context) Events(contract core.Address) ([]DBEvent, error) {
	var events []DBEvent
	result := c.db.Where("contract_address = ?", contract.String()).
		Order("id asc").Find(&events)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list events: %w", result.Error)
	}
	return events, nil
}

// Object implements types.VMObject backed by the objects tables.
type Object struct {
	ctx *Context
	id  core.ObjectID
}

// ID implements types.VMObject
func (o *Object) ID() core.ObjectID {
	return o.id
}

// Owner implements types.VMObject
func (o *Object) Owner() core.Address {
	var dbObj DBObject
	if err := o.ctx.db.Where("object_id = ?", o.id.String()).First(&dbObj).Error; err != nil {
		return core.ZeroAddress
	}
	addr, err := core.AddressFromString(dbObj.Owner)
	if err != nil {
		return core.ZeroAddress
	}
	return addr
}

// Contract implements types.VMObject
func (o *Object) Contract() core.Address {
	var dbObj DBObject
	if err := o.ctx.db.Where("object_id = ?", o.id.String()).First(&dbObj).Error; err != nil {
		return core.ZeroAddress
	}
	addr, err := core.AddressFromString(dbObj.Contract)
	if err != nil {
		return core.ZeroAddress
	}
	return addr
}

// SetOwner implements types.VMObject
func (o *Object) SetOwner(contract, sender, addr core.Address) error {
	if err := o.authorize(contract, sender); err != nil {
		return err
	}
	return o.ctx.db.Model(&DBObject{}).Where("object_id = ?", o.id.String()).
		Update("owner_address", addr.String()).Error
}

// Get implements types.VMObject
func (o *Object) Get(contract core.Address, field string) ([]byte, error) {
	if o.Contract() != contract {
		return nil, fmt.Errorf("invalid contract")
	}

	var dbField DBObjectField
	result := o.ctx.db.Where("object_id = ? AND field_key = ?", o.id.String(), field).First(&dbField)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("field %s does not exist", field)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get field: %w", result.Error)
	}
	return dbField.Value, nil
}

// Set implements types.VMObject
func (o *Object) Set(contract, sender core.Address, field string, value []byte) error {
	if err := o.authorize(contract, sender); err != nil {
		return err
	}

	return o.ctx.db.Transaction(func(tx *gorm.DB) error {
		var dbField DBObjectField
		result := tx.Where("object_id = ? AND field_key = ?", o.id.String(), field).First(&dbField)
		if result.Error == gorm.ErrRecordNotFound {
			dbField = DBObjectField{
				ObjectID: o.id.String(),
				Key:      field,
				Value:    value,
			}
			return tx.Create(&dbField).Error
		}
		if result.Error != nil {
			return fmt.Errorf("failed to get field: %w", result.Error)
		}
		return tx.Model(&dbField).Update("field_value", value).Error
	})
}

func (o *Object) authorize(contract, sender core.Address) error {
	if o.Contract() != contract {
		return fmt.Errorf("invalid contract")
	}
	owner := o.Owner()
	if sender != owner && contract != owner {
		return core.ErrUnauthorized
	}
	return nil
}
