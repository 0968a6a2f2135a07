package catalog

// defaultEntries are the aliases observed across custodian and fund
// administrator NAV reports.
var defaultEntries = []Entry{
	{
		Field:   Name,
		Type:    FieldText,
		Aliases: []string{"产品名称", "基金名称", "资产名称", "名称", "FundName"},
	},
	{
		Field: Code,
		Type:  FieldText,
		Aliases: []string{
			"产品代码", "基金代码", "资产代码", "代码",
			"协会备案编码", "协会备案代码", "FundFillingCode",
		},
	},
	{
		Field: UnitValue,
		Type:  FieldNumeric,
		Aliases: []string{
			"单位净值", "基金份额净值", "产品单位净值", "当期净值",
			"资产净值", "净值", "实际净值", "NAV/Share", "NAVShare",
		},
	},
	{
		Field: AccumulatedUnitValue,
		Type:  FieldNumeric,
		Aliases: []string{
			"累计单位净值", "基金份额累计净值", "产品累计单位净值", "当期累计净值",
			"资产净值累计净值", "累计净值", "实际累计净值",
			"AccumulatedNAV/Share", "AccumulatedNAVShare",
		},
	},
	{
		Field:   ValuationDate,
		Type:    FieldDate,
		Aliases: []string{"净值日期", "日期", "估值基准日", "NAVAsOfDate"},
	},
	{
		Field:   ClientName,
		Type:    FieldText,
		Aliases: []string{"客户名称", "ClientName"},
	},
	{
		Field:   ParticipatingShares,
		Type:    FieldNumeric,
		Aliases: []string{"参与计提份额", "计提份额", "份额"},
	},
	{
		Field:   AccrualFrequency,
		Type:    FieldText,
		Aliases: []string{"计提频率"},
	},
	{
		Field:   PerformanceFeeAmount,
		Type:    FieldNumeric,
		Aliases: []string{"虚拟计提业绩报酬金额", "业绩报酬金额", "业绩报酬"},
	},
	{
		Field:   WithdrawalNAV,
		Type:    FieldNumeric,
		Aliases: []string{"提取净值"},
	},
	{
		Field:   PostAccrualVirtualNAV,
		Type:    FieldNumeric,
		Aliases: []string{"计提后虚拟净值", "虚拟净值"},
	},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultEntries)
	if err != nil {
		panic("catalog: built-in entries are invalid: " + err.Error())
	}
	return c
}
