package api

// API Client-
//
// Files:
//   ethereum.go  - EthereumClient: nonce, chain id, gas price, balance, raw tx broadcast, receipts
//   receipt.go   - receipt polling shared by EthereumClient.WaitForReceipt
//   erc20.go     - ERC20 binding (decimals, balanceOf, transfer, transferFrom)
//   price.go     - PriceClient for USD prices (CoinGecko)
//   types.go     - Struct definitions (PriceData)
//
// Usage:
//   client, err := api.Dial(ctx, rpcURL)                 // from ethereum.go
//   token, err := api.NewERC20(contract, client)         // from erc20.go
//   price, err := api.NewPriceClient("").GetPrice(ctx, "ethereum")
