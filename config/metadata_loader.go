package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"quantreplay/errs"
	"quantreplay/metadata"
)

// sessionFile is the on-disk shape of a session basefile.
type sessionFile struct {
	Sessions []struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		Windows []struct {
			Open  uint32 `yaml:"open"`
			Close uint32 `yaml:"close"`
		} `yaml:"windows"`
	} `yaml:"sessions"`
}

type commodityFile struct {
	Commodities []struct {
		Exchange    string  `yaml:"exchange"`
		Product     string  `yaml:"product"`
		Multiplier  float64 `yaml:"multiplier"`
		PriceTick   float64 `yaml:"price_tick"`
		MarginRate  float64 `yaml:"margin_rate"`
		FeeTemplate string  `yaml:"fee_template"`
		IsT1        bool    `yaml:"is_t1"`
		CanShort    bool    `yaml:"can_short"`
		SessionID   string  `yaml:"session_id"`
		IsStock     bool    `yaml:"is_stock"`
	} `yaml:"commodities"`
}

type contractFile struct {
	Contracts []struct {
		Exchange  string `yaml:"exchange"`
		Code      string `yaml:"code"`
		Commodity string `yaml:"commodity"`
	} `yaml:"contracts"`
}

type holidayFile struct {
	Calendars []struct {
		Name     string   `yaml:"name"`
		Holidays []uint32 `yaml:"holidays"`
	} `yaml:"calendars"`
}

type feesFile struct {
	Templates []struct {
		Name       string  `yaml:"name"`
		Open       float64 `yaml:"open"`
		Close      float64 `yaml:"close"`
		CloseToday float64 `yaml:"close_today"`
		ByVolume   bool    `yaml:"by_volume"`
		MarginRate float64 `yaml:"margin_rate"`
	} `yaml:"templates"`
}

// LoadMetadata populates mgr from the basefiles + fee-template file named
// in a Replayer config section (spec §4.7 "Loaded at startup").
// Fee templates are loaded first so commodity entries can reference them
// by name.
func LoadMetadata(mgr *metadata.Manager, rep Replayer) error {
	var fees feesFile
	if rep.Fees != "" {
		if err := readYAML(rep.Fees, &fees); err != nil {
			return err
		}
		for _, t := range fees.Templates {
			mgr.AddFeeTemplate(&metadata.FeeTemplate{
				Name: t.Name, Open: t.Open, Close: t.Close, CloseToday: t.CloseToday,
				ByVolume: t.ByVolume, MarginRate: t.MarginRate,
			})
		}
	}

	var sessions sessionFile
	if rep.BaseFiles.Session != "" {
		if err := readYAML(rep.BaseFiles.Session, &sessions); err != nil {
			return err
		}
		for _, s := range sessions.Sessions {
			windows := make([]metadata.SessionWindow, len(s.Windows))
			for i, w := range s.Windows {
				windows[i] = metadata.SessionWindow{Open: w.Open, Close: w.Close}
			}
			mgr.AddSession(&metadata.SessionInfo{ID: s.ID, Name: s.Name, Windows: windows})
		}
	}

	var commodities commodityFile
	if rep.BaseFiles.Commodity != "" {
		if err := readYAML(rep.BaseFiles.Commodity, &commodities); err != nil {
			return err
		}
		for _, c := range commodities.Commodities {
			feeTpl, _ := mgr.FeeTemplate(c.FeeTemplate)
			mgr.AddCommodity(&metadata.CommodityInfo{
				Exchange: c.Exchange, Product: c.Product, Multiplier: c.Multiplier,
				PriceTick: c.PriceTick, MarginRate: c.MarginRate, FeeTemplate: feeTpl,
				IsT1: c.IsT1, CanShort: c.CanShort, SessionID: c.SessionID, IsStock: c.IsStock,
			})
		}
	}

	var contracts contractFile
	if rep.BaseFiles.Contract != "" {
		if err := readYAML(rep.BaseFiles.Contract, &contracts); err != nil {
			return err
		}
		for _, c := range contracts.Contracts {
			mgr.AddContract(&metadata.ContractInfo{Exchange: c.Exchange, Code: c.Code, Commodity: c.Commodity})
		}
	}

	var holidays holidayFile
	if rep.BaseFiles.Holiday != "" {
		if err := readYAML(rep.BaseFiles.Holiday, &holidays); err != nil {
			return err
		}
		for _, c := range holidays.Calendars {
			cal := &metadata.Calendar{Name: c.Name, Holidays: make(map[uint32]bool, len(c.Holidays))}
			for _, d := range c.Holidays {
				cal.Holidays[d] = true
			}
			mgr.AddCalendar(cal)
		}
	}

	return nil
}

func readYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &errs.ConfigError{Field: path, Err: err}
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return &errs.ConfigError{Field: path, Err: err}
	}
	return nil
}
