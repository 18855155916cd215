package market

import "marketclock/internal/domain"

var tradingWeekdays = []int{1, 2, 3, 4, 5}

func hm(s string) domain.TimeOfDay { return domain.MustTimeOfDay(s) }

func hmPtr(s string) *domain.TimeOfDay {
	t := domain.MustTimeOfDay(s)
	return &t
}

// defaultMarkets is the built-in exchange list, in display order.
func defaultMarkets() []domain.Market {
	return []domain.Market{
		{
			Name:        "纽约证券交易所 (NYSE)",
			Country:     "美国",
			Timezone:    "America/New_York",
			Open:        hm("09:30"),
			Close:       hm("16:00"),
			PreMarket:   hmPtr("04:00"),
			AfterMarket: hmPtr("20:00"),
			Weekdays:    tradingWeekdays,
			Description: "世界最大的证券交易所",
		},
		{
			Name:        "纳斯达克 (NASDAQ)",
			Country:     "美国",
			Timezone:    "America/New_York",
			Open:        hm("09:30"),
			Close:       hm("16:00"),
			PreMarket:   hmPtr("04:00"),
			AfterMarket: hmPtr("20:00"),
			Weekdays:    tradingWeekdays,
			Description: "世界第二大证券交易所",
		},
		{
			Name:        "上海证券交易所 (SSE)",
			Country:     "中国",
			Timezone:    "Asia/Shanghai",
			Open:        hm("09:30"),
			Close:       hm("15:00"),
			Weekdays:    tradingWeekdays,
			Description: "中国大陆最大的证券交易所",
		},
		{
			Name:        "深圳证券交易所 (SZSE)",
			Country:     "中国",
			Timezone:    "Asia/Shanghai",
			Open:        hm("09:30"),
			Close:       hm("15:00"),
			Weekdays:    tradingWeekdays,
			Description: "中国大陆第二大证券交易所",
		},
		{
			Name:        "东京证券交易所 (TSE)",
			Country:     "日本",
			Timezone:    "Asia/Tokyo",
			Open:        hm("09:00"),
			Close:       hm("15:00"),
			Weekdays:    tradingWeekdays,
			Description: "亚洲最大的证券交易所",
		},
		{
			Name:        "伦敦证券交易所 (LSE)",
			Country:     "英国",
			Timezone:    "Europe/London",
			Open:        hm("08:00"),
			Close:       hm("16:30"),
			Weekdays:    tradingWeekdays,
			Description: "欧洲最大的证券交易所",
		},
		{
			Name:        "香港交易所 (HKEX)",
			Country:     "中国香港",
			Timezone:    "Asia/Hong_Kong",
			Open:        hm("09:30"),
			Close:       hm("16:00"),
			Weekdays:    tradingWeekdays,
			Description: "亚洲重要的国际金融中心",
		},
		{
			Name:        "法兰克福证券交易所 (FWB)",
			Country:     "德国",
			Timezone:    "Europe/Berlin",
			Open:        hm("09:00"),
			Close:       hm("17:30"),
			Weekdays:    tradingWeekdays,
			Description: "德国最大的证券交易所",
		},
		{
			Name:        "多伦多证券交易所 (TSX)",
			Country:     "加拿大",
			Timezone:    "America/Toronto",
			Open:        hm("09:30"),
			Close:       hm("16:00"),
			Weekdays:    tradingWeekdays,
			Description: "加拿大最大的证券交易所",
		},
		{
			Name:        "澳大利亚证券交易所 (ASX)",
			Country:     "澳大利亚",
			Timezone:    "Australia/Sydney",
			Open:        hm("10:00"),
			Close:       hm("16:00"),
			Weekdays:    tradingWeekdays,
			Description: "澳大利亚最大的证券交易所",
		},
	}
}

// defaultTimezones is the world-clock panel, in display order.
func defaultTimezones() []domain.TimezoneEntry {
	return []domain.TimezoneEntry{
		{Label: "纽约", Timezone: "America/New_York"},
		{Label: "伦敦", Timezone: "Europe/London"},
		{Label: "东京", Timezone: "Asia/Tokyo"},
		{Label: "上海", Timezone: "Asia/Shanghai"},
		{Label: "香港", Timezone: "Asia/Hong_Kong"},
		{Label: "悉尼", Timezone: "Australia/Sydney"},
		{Label: "法兰克福", Timezone: "Europe/Berlin"},
		{Label: "多伦多", Timezone: "America/Toronto"},
	}
}
