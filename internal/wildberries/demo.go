package wildberries

import "time"

// Demo datasets shown when the marketplace API is unreachable past the retry
// budget. The fetcher never substitutes these itself; callers decide and mark
// the cache entry as demo so the response can disclose it.

// DemoReportRows returns a small, plausible sales report.
func DemoReportRows(now time.Time) []ReportRow {
	day := func(d int) time.Time { return now.AddDate(0, 0, -d) }
	return []ReportRow{
		{
			NmID: 14501355, SubjectName: "Футболка хлопковая", BrandName: "Zerofy Demo",
			DocTypeName: "Продажа", SaleDt: day(1),
			Quantity: 2, RetailPrice: 1290, RetailAmount: 2580, PpvzForPay: 2120,
			DeliveryRub: 86, StorageFee: 12.4, CommissionPercent: 17,
		},
		{
			NmID: 14501355, SubjectName: "Футболка хлопковая", BrandName: "Zerofy Demo",
			DocTypeName: "Продажа", SaleDt: day(2),
			Quantity: 1, RetailPrice: 1290, RetailAmount: 1290, PpvzForPay: 1060,
			DeliveryRub: 43, StorageFee: 6.2, CommissionPercent: 17,
		},
		{
			NmID: 17882910, SubjectName: "Джинсы зауженные", BrandName: "Zerofy Demo",
			DocTypeName: "Продажа", SaleDt: day(2),
			Quantity: 1, RetailPrice: 3490, RetailAmount: 3490, PpvzForPay: 2840,
			DeliveryRub: 97, StorageFee: 18.9, CommissionPercent: 19,
		},
		{
			NmID: 17882910, SubjectName: "Джинсы зауженные", BrandName: "Zerofy Demo",
			DocTypeName: "Возврат", SaleDt: day(3),
			Quantity: 1, RetailPrice: 3490, RetailAmount: 3490, PpvzForPay: 0,
			DeliveryRub: 97, StorageFee: 0, CommissionPercent: 19,
		},
		{
			NmID: 20417733, SubjectName: "Кроссовки беговые", BrandName: "Zerofy Demo",
			DocTypeName: "Продажа", SaleDt: day(4),
			Quantity: 1, RetailPrice: 5990, RetailAmount: 5990, PpvzForPay: 4870,
			DeliveryRub: 120, StorageFee: 24.6, CommissionPercent: 18,
		},
	}
}

// DemoWarehouses returns placeholder warehouse records.
func DemoWarehouses() []Warehouse {
	return []Warehouse{
		{ID: 507, Name: "Коледино", Address: "Подольск, Коледино", City: "Подольск"},
		{ID: 117986, Name: "Казань", Address: "Казань, индустриальный парк", City: "Казань"},
		{ID: 1733, Name: "Екатеринбург", Address: "Екатеринбург, Испытателей 14", City: "Екатеринбург"},
	}
}

// DemoCoefficients returns placeholder acceptance coefficients.
func DemoCoefficients(now time.Time) []AcceptanceCoefficient {
	return []AcceptanceCoefficient{
		{WarehouseID: 507, WarehouseName: "Коледино", Date: now, Coefficient: 1, BoxTypeName: "Короба"},
		{WarehouseID: 117986, WarehouseName: "Казань", Date: now, Coefficient: 0, BoxTypeName: "Короба"},
		{WarehouseID: 1733, WarehouseName: "Екатеринбург", Date: now, Coefficient: 2, BoxTypeName: "Монопаллеты"},
	}
}

// DemoRemains returns placeholder stock remainders.
func DemoRemains() []StockRemain {
	return []StockRemain{
		{NmID: 14501355, SubjectName: "Футболка хлопковая", WarehouseName: "Коледино", Quantity: 120, InWayToClient: 8},
		{NmID: 17882910, SubjectName: "Джинсы зауженные", WarehouseName: "Казань", Quantity: 45, InWayToClient: 3, InWayFromClient: 1},
		{NmID: 20417733, SubjectName: "Кроссовки беговые", WarehouseName: "Екатеринбург", Quantity: 18, InWayToClient: 2},
	}
}

// DemoPaidStorage returns placeholder paid-storage charges.
func DemoPaidStorage(now time.Time) []PaidStorage {
	return []PaidStorage{
		{NmID: 14501355, Date: now.AddDate(0, 0, -1), WarehouseName: "Коледино", StorageSum: 12.4, BarcodesCount: 120},
		{NmID: 17882910, Date: now.AddDate(0, 0, -1), WarehouseName: "Казань", StorageSum: 18.9, BarcodesCount: 45},
	}
}

// DemoBalance returns a placeholder account balance.
func DemoBalance() *Balance {
	return &Balance{Currency: "RUB", Current: 48210.37, ForWithdraw: 35600}
}

// DemoAdSpend returns placeholder advertising spend records.
func DemoAdSpend(now time.Time) []AdSpend {
	return []AdSpend{
		{CampaignID: 18223001, Date: now.AddDate(0, 0, -1), Sum: 540, CampaignName: "Футболки — поиск"},
		{CampaignID: 18223001, Date: now.AddDate(0, 0, -2), Sum: 480, CampaignName: "Футболки — поиск"},
		{CampaignID: 19410577, Date: now.AddDate(0, 0, -2), Sum: 1220, CampaignName: "Кроссовки — карточка"},
	}
}

// DemoOrders returns placeholder order events.
func DemoOrders(now time.Time) []Order {
	return []Order{
		{Srid: "demo-1", NmID: 14501355, SubjectName: "Футболка хлопковая", Date: now.AddDate(0, 0, -1), TotalPrice: 1290, Warehouse: "Коледино", Region: "Московская область"},
		{Srid: "demo-2", NmID: 20417733, SubjectName: "Кроссовки беговые", Date: now.AddDate(0, 0, -2), TotalPrice: 5990, Warehouse: "Екатеринбург", Region: "Свердловская область"},
	}
}

// DemoSales returns placeholder sale events.
func DemoSales(now time.Time) []Sale {
	return []Sale{
		{SaleID: "S-demo-1", NmID: 14501355, SubjectName: "Футболка хлопковая", Date: now.AddDate(0, 0, -1), ForPay: 1060, PriceWithDisc: 1290},
		{SaleID: "S-demo-2", NmID: 17882910, SubjectName: "Джинсы зауженные", Date: now.AddDate(0, 0, -2), ForPay: 2840, PriceWithDisc: 3490},
	}
}
