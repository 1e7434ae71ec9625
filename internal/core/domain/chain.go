package domain

// ChainDescriptor identifies an EVM chain and the RPC endpoints used to reach it.
// Endpoints are tried in order at monitor start; the first responsive one wins.
type ChainDescriptor struct {
	ChainID uint64
	Name    string
	RPCs    []string
}

// DefaultChains is the registry of chains monitored when no explicit set is
// configured. Endpoints reference env vars so keys stay out of the repo.
var DefaultChains = []ChainDescriptor{
	{
		ChainID: 1,
		Name:    "mainnet",
		RPCs: []string{
			"https://eth-mainnet.g.alchemy.com/v2/${ALCHEMY_KEY}",
			"wss://eth-mainnet.g.alchemy.com/v2/${ALCHEMY_KEY}",
		},
	},
	{
		ChainID: 11155111,
		Name:    "sepolia",
		RPCs: []string{
			"https://eth-sepolia.g.alchemy.com/v2/${ALCHEMY_KEY}",
			"wss://eth-sepolia.g.alchemy.com/v2/${ALCHEMY_KEY}",
		},
	},
	{
		ChainID: 10,
		Name:    "optimism",
		RPCs: []string{
			"https://opt-mainnet.g.alchemy.com/v2/${ALCHEMY_KEY}",
		},
	},
	{
		ChainID: 42161,
		Name:    "arbitrum",
		RPCs: []string{
			"https://arb-mainnet.g.alchemy.com/v2/${ALCHEMY_KEY}",
		},
	},
}
