package config

// DefaultAssets returns the built-in asset classes.
func DefaultAssets() map[string]AssetConfig {
	return map[string]AssetConfig{
		"stocks":      {Volatility: 0.2, ExpectedReturn: 0.08, InitialPrice: 100},
		"bonds":       {Volatility: 0.05, ExpectedReturn: 0.03, InitialPrice: 100},
		"commodities": {Volatility: 0.25, ExpectedReturn: 0.06, InitialPrice: 100},
		"real_estate": {Volatility: 0.15, ExpectedReturn: 0.07, InitialPrice: 100},
		"crypto":      {Volatility: 0.8, ExpectedReturn: 0.15, InitialPrice: 100},
	}
}

// DefaultConnections links the central bank to every financial institution
// and the stock exchange to every institution and direct participant.
func DefaultConnections() []ConnectionRule {
	return []ConnectionRule{
		{Hub: "Central Bank", Categories: []string{"financial_institution"}},
		{Hub: "Stock Exchange", Categories: []string{"financial_institution", "direct_participant"}},
	}
}

// DefaultEntities returns the built-in entity catalogue.
func DefaultEntities() []EntityConfig {
	return []EntityConfig{
		// Regulators
		{
			Category:       "regulator",
			Name:           "Central Bank",
			Description:    "Conducts monetary policy and oversees financial stability and payment systems",
			InitialBalance: 1e12,
			PolicyTools:    []string{"interest rate adjustment", "open market operations", "reserve requirement ratio"},
		},
		{
			Category:       "regulator",
			Name:           "Securities Regulatory Commission",
			Description:    "Supervises securities markets, protects investors and enforces market transparency",
			InitialBalance: 1e10,
			PolicyTools:    []string{"market supervision", "disclosure requirements", "fraud investigation"},
		},
		{
			Category:       "regulator",
			Name:           "Ministry of Finance",
			Description:    "Sets fiscal policy, issues government bonds and manages the budget",
			InitialBalance: 5e12,
			PolicyTools:    []string{"fiscal spending", "tax policy", "treasury issuance"},
		},

		// Financial institutions
		{
			Category:       "financial_institution",
			Name:           "Commercial Bank",
			Description:    "Large bank offering deposits, loans and payment services",
			InitialBalance: 5e11,
			Services:       []string{"deposits", "loans", "payment settlement", "foreign exchange"},
			RiskProfile:    "low",
		},
		{
			Category:       "financial_institution",
			Name:           "Investment Bank",
			Description:    "Underwrites securities, advises on mergers and trades on its own account",
			InitialBalance: 1e11,
			Services:       []string{"underwriting", "M&A advisory", "proprietary trading", "asset management"},
			RiskProfile:    "medium-high",
		},
		{
			Category:       "financial_institution",
			Name:           "Mutual Fund Company",
			Description:    "Manages open-end and closed-end funds for the public",
			InitialBalance: 5e10,
			Services:       []string{"fund management", "investment advisory", "asset allocation"},
			RiskProfile:    "medium",
		},
		{
			Category:       "financial_institution",
			Name:           "Hedge Fund",
			Description:    "Private fund pursuing absolute returns across multiple strategies",
			InitialBalance: 2e10,
			Services:       []string{"alternative investments", "multi-strategy trading", "leveraged investing"},
			RiskProfile:    "high",
		},
		{
			Category:       "financial_institution",
			Name:           "Insurance Company",
			Description:    "Provides insurance products and services",
			InitialBalance: 2e11,
			Services:       []string{"life insurance", "property insurance", "reinsurance", "pension management"},
			RiskProfile:    "medium-low",
		},
		{
			Category:       "financial_institution",
			Name:           "Trust Company",
			Description:    "Provides trust services and asset management",
			InitialBalance: 3e10,
			Services:       []string{"trust plans", "asset management", "wealth management"},
			RiskProfile:    "medium",
		},
		{
			Category:       "financial_institution",
			Name:           "Asset Management Company",
			Description:    "Large manager spanning multiple asset classes",
			InitialBalance: 3e11,
			Services:       []string{"asset management", "investment advisory", "risk management"},
			RiskProfile:    "medium",
		},
		{
			Category:       "financial_institution",
			Name:           "Pension Fund",
			Description:    "Manages retirement and pension assets",
			InitialBalance: 4e11,
			Services:       []string{"pension management", "long-term investment", "retirement planning"},
			RiskProfile:    "low",
		},
		{
			Category:       "financial_institution",
			Name:           "Futures Company",
			Description:    "Provides futures and derivatives trading services",
			InitialBalance: 1e10,
			Services:       []string{"futures trading", "risk management", "commodity trading"},
			RiskProfile:    "high",
		},

		// Market infrastructure
		{
			Category:       "market_infrastructure",
			Name:           "Stock Exchange",
			Description:    "Operates the securities trading venue and its market surveillance",
			InitialBalance: 5e10,
			Services:       []string{"order matching", "market surveillance", "information disclosure"},
		},
		{
			Category:       "market_infrastructure",
			Name:           "Clearing House",
			Description:    "Clears and settles securities trades",
			InitialBalance: 2e10,
			Services:       []string{"clearing", "settlement", "custody", "risk management"},
		},
		{
			Category:       "market_infrastructure",
			Name:           "Payment System",
			Description:    "Processes payments and fund transfers",
			InitialBalance: 1e10,
			Services:       []string{"payment processing", "fund clearing", "cross-border payments"},
		},
		{
			Category:       "market_infrastructure",
			Name:           "Financial Information Platform",
			Description:    "Supplies market data and financial news",
			InitialBalance: 5e9,
			Services:       []string{"market data", "news", "analytics tools"},
		},

		// Auxiliary services
		{
			Category:       "auxiliary_service",
			Name:           "Credit Rating Agency",
			Description:    "Assesses the credit risk of companies and bonds",
			InitialBalance: 2e9,
			Services:       []string{"credit ratings", "risk assessment", "market research"},
		},
		{
			Category:       "auxiliary_service",
			Name:           "Accounting Firm",
			Description:    "Provides audit and financial reporting services",
			InitialBalance: 3e9,
			Services:       []string{"audit", "financial reporting", "tax advisory"},
		},
		{
			Category:       "auxiliary_service",
			Name:           "Law Firm",
			Description:    "Provides legal advice and compliance services",
			InitialBalance: 2.5e9,
			Services:       []string{"legal advice", "compliance review", "litigation support"},
		},
		{
			Category:       "auxiliary_service",
			Name:           "Fintech Company",
			Description:    "Builds financial technology solutions",
			InitialBalance: 5e9,
			Services:       []string{"payment technology", "blockchain", "quantitative trading tools"},
		},

		// Direct participants
		{
			Category:       "direct_participant",
			Name:           "Large Corporation",
			Description:    "Large company raising capital through equity and bonds",
			InitialBalance: 1e10,
			Sector:         "technology",
			CreditRating:   "AA",
		},
		{
			Category:       "direct_participant",
			Name:           "Mid-size Corporation",
			Description:    "Mid-size company financed mainly through bank loans",
			InitialBalance: 1e9,
			Sector:         "manufacturing",
			CreditRating:   "BBB",
		},
		{
			Category:       "direct_participant",
			Name:           "Small Business",
			Description:    "Small company relying on bank loans and venture capital",
			InitialBalance: 1e8,
			Sector:         "services",
			CreditRating:   "BB",
		},
		{
			Category:          "direct_participant",
			Name:              "Retail Investor",
			Description:       "Individual retail investor",
			InitialBalance:    1e6,
			RiskPreference:    "medium",
			InvestmentHorizon: "medium-long",
		},
		{
			Category:          "direct_participant",
			Name:              "High Net Worth Client",
			Description:       "Individual with substantial investable assets",
			InitialBalance:    5e7,
			RiskPreference:    "medium-high",
			InvestmentHorizon: "long",
		},
		{
			Category:        "direct_participant",
			Name:            "Market Maker",
			Description:     "Provides liquidity and continuous quotes",
			InitialBalance:  5e9,
			Markets:         []string{"equities", "bonds", "foreign exchange"},
			TradingStrategy: "market making",
		},
		{
			Category:        "direct_participant",
			Name:            "High-Frequency Trading Firm",
			Description:     "Trades algorithmically at high frequency",
			InitialBalance:  2e9,
			Markets:         []string{"equities", "futures", "options"},
			TradingStrategy: "high-frequency arbitrage",
		},

		// International organizations
		{
			Category:       "international_organization",
			Name:           "International Monetary Fund",
			Description:    "Promotes global monetary cooperation and financial stability",
			InitialBalance: 1e12,
			Functions:      []string{"balance of payments support", "exchange rate stability", "economic policy advice"},
		},
		{
			Category:       "international_organization",
			Name:           "World Bank",
			Description:    "Provides financial and technical assistance to developing countries",
			InitialBalance: 5e11,
			Functions:      []string{"poverty reduction", "sustainable development", "infrastructure"},
		},
		{
			Category:       "international_organization",
			Name:           "Bank for International Settlements",
			Description:    "Fosters central bank cooperation and financial stability",
			InitialBalance: 3e11,
			Functions:      []string{"central bank cooperation", "financial research", "international standards"},
		},
	}
}
