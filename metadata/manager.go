package metadata

import "fmt"

// Manager is the read-only, startup-loaded trading-reference-data store
// (spec §4.7). It is owned by the engine handle and passed by reference to
// every other component that needs it; nothing else ever mutates it once
// LoadFrom has returned.
type Manager struct {
	sessions   map[string]*SessionInfo
	calendars  map[string]*Calendar
	commodities map[string]*CommodityInfo // keyed "exchange.product"
	contracts   map[string]*ContractInfo  // keyed "exchange.code"
	feeTemplates map[string]*FeeTemplate
}

// NewManager builds an empty Manager; populate it with the Add* methods or
// via config.LoadMetadata.
func NewManager() *Manager {
	return &Manager{
		sessions:     make(map[string]*SessionInfo),
		calendars:    make(map[string]*Calendar),
		commodities:  make(map[string]*CommodityInfo),
		contracts:    make(map[string]*ContractInfo),
		feeTemplates: make(map[string]*FeeTemplate),
	}
}

func commodityKey(exchange, product string) string { return exchange + "." + product }
func contractKey(exchange, code string) string     { return exchange + "." + code }

// AddSession registers a named session window set.
func (m *Manager) AddSession(s *SessionInfo) { m.sessions[s.ID] = s }

// Session looks up a session by id.
func (m *Manager) Session(id string) (*SessionInfo, bool) {
	s, ok := m.sessions[id]
	return s, ok
}

// AddCalendar registers a holiday calendar.
func (m *Manager) AddCalendar(c *Calendar) { m.calendars[c.Name] = c }

// Calendar looks up a holiday calendar by name.
func (m *Manager) Calendar(name string) (*Calendar, bool) {
	c, ok := m.calendars[name]
	return c, ok
}

// AddFeeTemplate registers a named fee template.
func (m *Manager) AddFeeTemplate(t *FeeTemplate) { m.feeTemplates[t.Name] = t }

// FeeTemplate looks up a fee template by name.
func (m *Manager) FeeTemplate(name string) (*FeeTemplate, bool) {
	t, ok := m.feeTemplates[name]
	return t, ok
}

// AddCommodity registers a commodity's contract properties.
func (m *Manager) AddCommodity(c *CommodityInfo) {
	m.commodities[commodityKey(c.Exchange, c.Product)] = c
}

// Commodity looks up commodity properties by exchange+product.
func (m *Manager) Commodity(exchange, product string) (*CommodityInfo, bool) {
	c, ok := m.commodities[commodityKey(exchange, product)]
	return c, ok
}

// AddContract registers one tradable contract.
func (m *Manager) AddContract(c *ContractInfo) {
	m.contracts[contractKey(c.Exchange, c.Code)] = c
}

// Contract looks up a contract by exchange+code.
func (m *Manager) Contract(exchange, code string) (*ContractInfo, bool) {
	c, ok := m.contracts[contractKey(exchange, code)]
	return c, ok
}

// CommodityForContract resolves the owning commodity for a contract code.
func (m *Manager) CommodityForContract(exchange, code string) (*CommodityInfo, error) {
	contract, ok := m.Contract(exchange, code)
	if !ok {
		return nil, fmt.Errorf("metadata: unknown contract %s.%s", exchange, code)
	}
	comm, ok := m.Commodity(exchange, contract.Commodity)
	if !ok {
		return nil, fmt.Errorf("metadata: unknown commodity %s.%s", exchange, contract.Commodity)
	}
	return comm, nil
}
