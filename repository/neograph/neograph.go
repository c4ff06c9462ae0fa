package neograph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/neo4j/neo4j-go-driver/v4/neo4j"
)

var ErrNotConfigured = errors.New("neo4j is not configured")

type Neo4jConfig struct {
	Host string
	Port int
	User string
	Pwd  string
}

func (c *Neo4jConfig) uri() string {
	return fmt.Sprintf("neo4j://%s:%d", c.Host, c.Port)
}

type Config struct {
	Neo4j Neo4jConfig
}

func GenerateTestConfig() *Config {
	return &Config{Neo4j: Neo4jConfig{
		Host: "localhost",
		Port: 7687,
		User: "neo4j",
		Pwd:  "neo4j_test",
	}}
}

// Summary counts what one Execute changed in the graph.
type Summary struct {
	NodesCreated         int
	RelationshipsCreated int
	PropertiesSet        int
}

var (
	driverLock sync.RWMutex
	driver     neo4j.Driver
)

// Init connects and verifies connectivity. An empty host leaves the graph disabled.
func Init(config *Config) error {
	if len(config.Neo4j.Host) == 0 {
		return nil
	}

	d, err := neo4j.NewDriver(config.Neo4j.uri(), neo4j.BasicAuth(config.Neo4j.User, config.Neo4j.Pwd, ""))
	if err != nil {
		return utils.WrapError(err, "create neo4j driver fail")
	}

	if err := d.VerifyConnectivity(); err != nil {
		d.Close()
		return utils.WrapErrorf(err, "connect neo4j [%s] fail", config.Neo4j.uri())
	}

	driverLock.Lock()
	driver = d
	driverLock.Unlock()

	return nil
}

func Enabled() bool {
	driverLock.RLock()
	defer driverLock.RUnlock()
	return driver != nil
}

// Execute runs cypher in a write transaction.
func Execute(cypher string, params map[string]interface{}) (*Summary, error) {
	driverLock.RLock()
	d := driver
	driverLock.RUnlock()

	if d == nil {
		return nil, ErrNotConfigured
	}

	session := d.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	ret, err := session.WriteTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		result, err := tx.Run(cypher, params)
		if err != nil {
			return nil, err
		}

		summary, err := result.Consume()
		if err != nil {
			return nil, err
		}

		counters := summary.Counters()
		return &Summary{
			NodesCreated:         counters.NodesCreated(),
			RelationshipsCreated: counters.RelationshipsCreated(),
			PropertiesSet:        counters.PropertiesSet(),
		}, nil
	})
	if err != nil {
		return nil, utils.WrapError(err, "execute cypher fail")
	}

	return ret.(*Summary), nil
}

func Close() {
	driverLock.Lock()
	defer driverLock.Unlock()

	if driver != nil {
		_ = driver.Close()
		driver = nil
	}
}
