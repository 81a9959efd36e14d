package ops

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/chain"
	"SolAgent-Kit/internal/defi/jupiter"
	"SolAgent-Kit/internal/defi/lulo"
	"SolAgent-Kit/internal/defi/meteora"
	"SolAgent-Kit/internal/defi/pumpfun"
	"SolAgent-Kit/internal/defi/pyth"
	"SolAgent-Kit/internal/defi/rugcheck"
	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/tokens"
	"SolAgent-Kit/internal/wallet"
)

type fakeChain struct {
	balance     uint64
	tokenAmount chain.TokenAmount
	mintInfo    chain.MintInfo
	accountInfo chain.TokenAccountInfo
	samples     []chain.PerformanceSample
	rent        uint64

	sent     []*solana.Transaction
	sentOpts []chain.SendOptions
	airdrops []uint64
}

func (f *fakeChain) Balance(context.Context, solana.PublicKey) (uint64, error) {
	return f.balance, nil
}

func (f *fakeChain) TokenBalance(context.Context, solana.PublicKey) (chain.TokenAmount, error) {
	return f.tokenAmount, nil
}

func (f *fakeChain) MintInfo(context.Context, solana.PublicKey) (chain.MintInfo, error) {
	return f.mintInfo, nil
}

func (f *fakeChain) TokenAccountInfo(context.Context, solana.PublicKey) (chain.TokenAccountInfo, error) {
	return f.accountInfo, nil
}

func (f *fakeChain) LatestBlockhash(context.Context) (chain.Blockhash, error) {
	return chain.Blockhash{Hash: solana.Hash{1}, LastValidBlockHeight: 100}, nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *solana.Transaction, opts chain.SendOptions) (solana.Signature, error) {
	f.sent = append(f.sent, tx)
	f.sentOpts = append(f.sentOpts, opts)
	return solana.Signature{2}, nil
}

func (f *fakeChain) ConfirmTransaction(context.Context, solana.Signature) error { return nil }

func (f *fakeChain) RequestAirdrop(_ context.Context, _ solana.PublicKey, lamports uint64) (solana.Signature, error) {
	f.airdrops = append(f.airdrops, lamports)
	return solana.Signature{3}, nil
}

func (f *fakeChain) PerformanceSamples(context.Context, uint) ([]chain.PerformanceSample, error) {
	return f.samples, nil
}

func (f *fakeChain) MinimumRentExemption(context.Context, uint64) (uint64, error) {
	return f.rent, nil
}

func (f *fakeChain) Close() {}

func testKit(t *testing.T, node *fakeChain, opts agent.Options) *agent.Kit {
	t.Helper()
	if opts.Wallet == nil {
		opts.Wallet = wallet.Generate()
	}
	opts.Chain = node
	kit, err := agent.New(opts)
	if err != nil {
		t.Fatalf("build kit: %v", err)
	}
	return kit
}

func TestTransferSOLSignsAndSubmits(t *testing.T) {
	node := &fakeChain{}
	kit := testKit(t, node, agent.Options{})
	recipient := solana.NewWallet().PublicKey()

	result, err := Transfer(context.Background(), kit, TransferRequest{To: recipient.String(), Amount: 1.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Asset != "SOL" || result.To != recipient.String() {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(node.sent) != 1 {
		t.Fatalf("expected one submitted transaction, got %d", len(node.sent))
	}
	tx := node.sent[0]
	if len(tx.Signatures) != 1 || tx.Signatures[0].IsZero() {
		t.Fatalf("transaction was not signed")
	}
	if len(tx.Message.Instructions) != 1 {
		t.Fatalf("expected a single instruction")
	}
	program, err := tx.Message.Program(tx.Message.Instructions[0].ProgramIDIndex)
	if err != nil {
		t.Fatal(err)
	}
	if !program.Equals(system.ProgramID) {
		t.Fatalf("expected system program transfer, got %s", program)
	}
}

func TestTransferValidatesBeforeNetwork(t *testing.T) {
	node := &fakeChain{}
	kit := testKit(t, node, agent.Options{})

	cases := []TransferRequest{
		{To: "", Amount: 1},
		{To: "not-an-address", Amount: 1},
		{To: solana.NewWallet().PublicKey().String(), Amount: 0},
	}
	for _, req := range cases {
		if _, err := Transfer(context.Background(), kit, req); xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
			t.Fatalf("expected INVALID_ARGUMENT for %+v, got %v", req, err)
		}
	}
	if len(node.sent) != 0 {
		t.Fatalf("invalid requests must not reach the ledger")
	}
}

func TestTradeSubmitsAggregatorTransaction(t *testing.T) {
	keypair := solana.NewWallet()
	signer, err := wallet.FromBase58(keypair.PrivateKey.String())
	if err != nil {
		t.Fatal(err)
	}

	prebuilt, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, keypair.PublicKey(), keypair.PublicKey()).Build()},
		solana.Hash{7},
		solana.TransactionPayer(keypair.PublicKey()),
	)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := prebuilt.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		return &keypair.PrivateKey
	}); err != nil {
		t.Fatal(err)
	}
	encoded, err := prebuilt.ToBase64()
	if err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote":
			w.Write([]byte(`{"inAmount":"1000000","outAmount":"990000"}`))
		case "/swap":
			w.Write([]byte(`{"swapTransaction":"` + encoded + `"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	node := &fakeChain{mintInfo: chain.MintInfo{Decimals: 6}}
	kit := testKit(t, node, agent.Options{
		Wallet:  signer,
		Jupiter: jupiter.NewClient(jupiter.Config{QuoteURL: server.URL}),
	})

	result, err := Trade(context.Background(), kit, TradeRequest{OutputAsset: "SOL", InputAmount: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.InputAsset != "USDC" || result.SlippageBPS != 300 {
		t.Fatalf("defaults not applied: %+v", result)
	}
	if len(node.sentOpts) != 1 || node.sentOpts[0].MaxRetries == nil || *node.sentOpts[0].MaxRetries != 3 {
		t.Fatalf("swap submission should cap node retransmits at 3")
	}
}

func TestFaucetDefaultsToFiveSOL(t *testing.T) {
	node := &fakeChain{}
	kit := testKit(t, node, agent.Options{})

	result, err := Faucet(context.Background(), kit, FaucetRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Amount != 5 {
		t.Fatalf("unexpected amount: %v", result.Amount)
	}
	if len(node.airdrops) != 1 || node.airdrops[0] != 5_000_000_000 {
		t.Fatalf("unexpected airdrop lamports: %v", node.airdrops)
	}
}

func TestFaucetRejectsOversizedRequest(t *testing.T) {
	kit := testKit(t, &fakeChain{}, agent.Options{})
	if _, err := Faucet(context.Background(), kit, FaucetRequest{Amount: 6}); xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestBurnCloseRejectsForeignAccount(t *testing.T) {
	node := &fakeChain{accountInfo: chain.TokenAccountInfo{
		Owner:  solana.NewWallet().PublicKey(),
		Amount: 10,
	}}
	kit := testKit(t, node, agent.Options{})

	_, err := BurnClose(context.Background(), kit, BurnCloseRequest{
		TokenAccount: solana.NewWallet().PublicKey().String(),
	})
	if xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
	if len(node.sent) != 0 {
		t.Fatalf("foreign accounts must not reach the ledger")
	}
}

func TestBurnCloseSkipsBurnWhenEmpty(t *testing.T) {
	signer := wallet.Generate()
	node := &fakeChain{accountInfo: chain.TokenAccountInfo{
		Owner:  signer.PublicKey(),
		Mint:   solana.NewWallet().PublicKey(),
		Amount: 0,
	}}
	kit := testKit(t, node, agent.Options{Wallet: signer})

	result, err := BurnClose(context.Background(), kit, BurnCloseRequest{
		TokenAccount: solana.NewWallet().PublicKey().String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.BurnedAmount != 0 {
		t.Fatalf("unexpected burned amount: %d", result.BurnedAmount)
	}
	if len(node.sent) != 1 {
		t.Fatalf("expected one submitted transaction")
	}
	// compute budget limit + price + close, no burn
	if got := len(node.sent[0].Message.Instructions); got != 3 {
		t.Fatalf("empty account should skip the burn, got %d instructions", got)
	}
}

func TestBurnCloseBatchContinuesPastFailures(t *testing.T) {
	signer := wallet.Generate()
	node := &fakeChain{accountInfo: chain.TokenAccountInfo{
		Owner: solana.NewWallet().PublicKey(),
	}}
	kit := testKit(t, node, agent.Options{Wallet: signer})

	result, err := BurnCloseBatch(context.Background(), kit, BurnCloseBatchRequest{
		TokenAccounts: []string{
			solana.NewWallet().PublicKey().String(),
			solana.NewWallet().PublicKey().String(),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failed != 2 || result.Succeeded != 0 {
		t.Fatalf("unexpected batch outcome: %+v", result)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("every account needs an entry")
	}
}

func TestBalanceReadsSOLByDefault(t *testing.T) {
	node := &fakeChain{balance: 2_500_000_000}
	kit := testKit(t, node, agent.Options{})

	result, err := Balance(context.Background(), kit, BalanceRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Asset != "SOL" || result.UIAmount != 2.5 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestBalanceReadsTokenAccount(t *testing.T) {
	node := &fakeChain{tokenAmount: chain.TokenAmount{Amount: 1_250_000, Decimals: 6}}
	kit := testKit(t, node, agent.Options{})

	result, err := Balance(context.Background(), kit, BalanceRequest{Asset: "USDC"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Asset != "USDC" || result.RawAmount != 1_250_000 || result.UIAmount != 1.25 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestNetworkStatsAggregates(t *testing.T) {
	node := &fakeChain{samples: []chain.PerformanceSample{
		{Slot: 3, NumTransactions: 6000, SamplePeriodSecs: 60, TPS: 100},
		{Slot: 2, NumTransactions: 0, SamplePeriodSecs: 0},
		{Slot: 1, NumTransactions: 12000, SamplePeriodSecs: 60, TPS: 200},
	}}
	kit := testKit(t, node, agent.Options{})

	result, err := NetworkStats(context.Background(), kit, NetworkStatsRequest{Samples: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CurrentTPS != 100 || result.AverageTPS != 150 || result.MaxTPS != 200 {
		t.Fatalf("unexpected aggregation: %+v", result)
	}
}

func TestDeployTokenSignsWithMintKeypair(t *testing.T) {
	node := &fakeChain{rent: 1_461_600}
	kit := testKit(t, node, agent.Options{})

	result, err := DeployToken(context.Background(), kit, DeployTokenRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Decimals != 9 {
		t.Fatalf("default decimals not applied: %+v", result)
	}
	if len(node.sent) != 1 {
		t.Fatalf("expected one submitted transaction")
	}
	tx := node.sent[0]
	if len(tx.Signatures) != 2 {
		t.Fatalf("wallet and mint keypair must both sign, got %d signatures", len(tx.Signatures))
	}
	if len(tx.Message.Instructions) != 2 {
		t.Fatalf("expected create-account plus initialize-mint")
	}
}

func TestCreateImageRequiresProvider(t *testing.T) {
	kit := testKit(t, &fakeChain{}, agent.Options{})
	_, err := CreateImage(context.Background(), kit, CreateImageRequest{Prompt: "a logo"})
	if xerrors.CodeOf(err) != xerrors.CodeCredentialFailure {
		t.Fatalf("expected CREDENTIAL_FAILURE, got %v", err)
	}
}

// signerFor wraps a generated keypair for use as the kit wallet.
func signerFor(t *testing.T, keypair *solana.Wallet) *wallet.Wallet {
	t.Helper()
	signer, err := wallet.FromBase58(keypair.PrivateKey.String())
	if err != nil {
		t.Fatal(err)
	}
	return signer
}

// prebuiltTransaction stands in for a protocol-built transaction: a signed
// self-transfer with a stale blockhash.
func prebuiltTransaction(t *testing.T, keypair *solana.Wallet) *solana.Transaction {
	t.Helper()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, keypair.PublicKey(), keypair.PublicKey()).Build()},
		solana.Hash{7},
		solana.TransactionPayer(keypair.PublicKey()),
	)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		return &keypair.PrivateKey
	}); err != nil {
		t.Fatal(err)
	}
	return tx
}

func TestStakeSubmitsBlinkTransaction(t *testing.T) {
	keypair := solana.NewWallet()
	encoded, err := prebuiltTransaction(t, keypair).ToBase64()
	if err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transaction":"` + encoded + `"}`))
	}))
	defer server.Close()

	node := &fakeChain{}
	kit := testKit(t, node, agent.Options{
		Wallet:  signerFor(t, keypair),
		Jupiter: jupiter.NewClient(jupiter.Config{StakeURL: server.URL}),
	})

	result, err := Stake(context.Background(), kit, StakeRequest{Amount: 1.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Amount != 1.5 || result.Signature == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(node.sent) != 1 {
		t.Fatalf("expected one submitted transaction, got %d", len(node.sent))
	}
	tx := node.sent[0]
	if tx.Message.RecentBlockhash != (solana.Hash{1}) {
		t.Fatalf("blockhash was not refreshed before signing")
	}
	if len(tx.Signatures) != 1 || tx.Signatures[0].IsZero() {
		t.Fatalf("transaction was not re-signed")
	}
}

func TestStakeRejectsNonPositiveAmount(t *testing.T) {
	node := &fakeChain{}
	kit := testKit(t, node, agent.Options{})
	if _, err := Stake(context.Background(), kit, StakeRequest{}); xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
	if len(node.sent) != 0 {
		t.Fatalf("invalid requests must not reach the ledger")
	}
}

func TestLendDefaultsSymbolAndSubmits(t *testing.T) {
	keypair := solana.NewWallet()
	encoded, err := prebuiltTransaction(t, keypair).ToBase64()
	if err != nil {
		t.Fatal(err)
	}

	var gotQuery map[string][]string
	var gotAccount string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		var body struct {
			Account string `json:"account"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode deposit body: %v", err)
		}
		gotAccount = body.Account
		w.Write([]byte(`{"transaction":"` + encoded + `"}`))
	}))
	defer server.Close()

	node := &fakeChain{}
	kit := testKit(t, node, agent.Options{
		Wallet: signerFor(t, keypair),
		Lulo:   lulo.NewClient(lulo.Config{BaseURL: server.URL}),
	})

	result, err := Lend(context.Background(), kit, LendRequest{Amount: 25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Symbol != "USDC" || result.Amount != 25 {
		t.Fatalf("defaults not applied: %+v", result)
	}
	if got := gotQuery["symbol"]; len(got) != 1 || got[0] != "USDC" {
		t.Fatalf("symbol not sent to the lending service: %v", gotQuery)
	}
	if got := gotQuery["amount"]; len(got) != 1 || got[0] != "25" {
		t.Fatalf("amount not sent to the lending service: %v", gotQuery)
	}
	if gotAccount != keypair.PublicKey().String() {
		t.Fatalf("unexpected deposit account: %s", gotAccount)
	}
	if len(node.sent) != 1 {
		t.Fatalf("expected one submitted transaction, got %d", len(node.sent))
	}
}

func TestLendRejectsNonPositiveAmount(t *testing.T) {
	kit := testKit(t, &fakeChain{}, agent.Options{})
	if _, err := Lend(context.Background(), kit, LendRequest{Amount: -1}); xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestCreatePoolPositionsActiveBin(t *testing.T) {
	keypair := solana.NewWallet()
	encoded, err := prebuiltTransaction(t, keypair).ToBase64()
	if err != nil {
		t.Fatal(err)
	}

	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode pool payload: %v", err)
		}
		w.Write([]byte(`{"transaction":"` + encoded + `"}`))
	}))
	defer server.Close()

	node := &fakeChain{mintInfo: chain.MintInfo{Decimals: 6}}
	kit := testKit(t, node, agent.Options{
		Wallet:  signerFor(t, keypair),
		Meteora: meteora.NewClient(meteora.Config{BaseURL: server.URL}),
	})

	point := uint64(42)
	result, err := CreatePool(context.Background(), kit, CreatePoolRequest{
		BaseAsset:       "SOL",
		QuoteAsset:      "USDC",
		BinStep:         100,
		InitialPrice:    100,
		ActivationType:  "Slot",
		ActivationPoint: &point,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 100 USDC per SOL is 0.1 per lamport after decimal correction, which
	// floors onto bin -232 at a 1% bin step.
	if result.ActiveBin != -232 {
		t.Fatalf("unexpected active bin: %d", result.ActiveBin)
	}
	if payload["activeBin"] != float64(-232) || payload["binStep"] != float64(100) {
		t.Fatalf("bin position not sent to the builder: %v", payload)
	}
	if payload["activationType"] != "slot" || payload["activationPoint"] != float64(42) {
		t.Fatalf("activation schedule not sent to the builder: %v", payload)
	}
	if result.BaseMint != tokens.WSOL.String() || result.QuoteMint != tokens.USDC.String() {
		t.Fatalf("unexpected pair: %+v", result)
	}
	if len(node.sent) != 1 {
		t.Fatalf("expected one submitted transaction, got %d", len(node.sent))
	}
}

func TestCreatePoolRejectsSamePair(t *testing.T) {
	kit := testKit(t, &fakeChain{}, agent.Options{})
	_, err := CreatePool(context.Background(), kit, CreatePoolRequest{
		BaseAsset:    "SOL",
		QuoteAsset:   "sol",
		BinStep:      100,
		InitialPrice: 1,
	})
	if xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestLaunchTokenUploadsAndCoSigns(t *testing.T) {
	keypair := solana.NewWallet()
	raw, err := prebuiltTransaction(t, keypair).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	mux.HandleFunc("/ipfs", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse metadata form: %v", err)
		}
		if got := r.FormValue("symbol"); got != "AGT" {
			t.Errorf("unexpected symbol in metadata form: %s", got)
		}
		w.Write([]byte(`{"metadataUri":"ipfs://pinned"}`))
	})
	mux.HandleFunc("/launch", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Action string `json:"action"`
			Mint   string `json:"mint"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode launch body: %v", err)
		}
		if body.Action != "create" || body.Mint == "" {
			t.Errorf("unexpected launch body: %+v", body)
		}
		w.Write(raw)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	node := &fakeChain{}
	kit := testKit(t, node, agent.Options{
		Wallet: signerFor(t, keypair),
		Pumpfun: pumpfun.NewClient(pumpfun.Config{
			IPFSURL:  server.URL + "/ipfs",
			TradeURL: server.URL + "/launch",
		}),
	})

	result, err := LaunchToken(context.Background(), kit, LaunchTokenRequest{
		Name:     "Agent Coin",
		Symbol:   "AGT",
		ImageURL: server.URL + "/image",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MetadataURI != "ipfs://pinned" {
		t.Fatalf("unexpected metadata URI: %s", result.MetadataURI)
	}
	if _, err := solana.PublicKeyFromBase58(result.Mint); err != nil {
		t.Fatalf("result mint is not an address: %s", result.Mint)
	}
	if len(node.sent) != 1 {
		t.Fatalf("expected one submitted transaction, got %d", len(node.sent))
	}
	tx := node.sent[0]
	if len(tx.Signatures) != 1 || tx.Signatures[0].IsZero() {
		t.Fatalf("transaction was not signed")
	}
}

func TestFetchPriceReadsAggregatorFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"` + tokens.USDC.String() + `":{"price":"1.0001"}}}`))
	}))
	defer server.Close()

	kit := testKit(t, &fakeChain{}, agent.Options{
		Jupiter: jupiter.NewClient(jupiter.Config{PriceURL: server.URL}),
	})

	result, err := FetchPrice(context.Background(), kit, FetchPriceRequest{Asset: "USDC"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PriceUSD != "1.0001" || result.Source != "jupiter" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Asset != "USDC" || result.Mint != tokens.USDC.String() {
		t.Fatalf("asset not resolved: %+v", result)
	}
}

func TestFetchPriceReadsOracleAccount(t *testing.T) {
	// V2 price account: magic, exponent at 20, aggregate at 208.
	data := make([]byte, 240)
	binary.LittleEndian.PutUint32(data[:4], 0xa1b2c3d4)
	exponent := int32(-8)
	binary.LittleEndian.PutUint32(data[20:24], uint32(exponent))
	binary.LittleEndian.PutUint64(data[208:216], 2_374_500_000_000)
	binary.LittleEndian.PutUint64(data[216:224], 150_000_000)
	binary.LittleEndian.PutUint32(data[224:228], 1)
	encoded := base64.StdEncoding.EncodeToString(data)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":{` +
			`"lamports":1,"owner":"11111111111111111111111111111111",` +
			`"data":["` + encoded + `","base64"],"executable":false,"rentEpoch":0}}}`))
	}))
	defer server.Close()

	kit := testKit(t, &fakeChain{}, agent.Options{
		Pyth: pyth.NewClient(pyth.Config{RPCURL: server.URL}),
	})

	account := solana.NewWallet().PublicKey()
	result, err := FetchPrice(context.Background(), kit, FetchPriceRequest{
		Asset:  account.String(),
		Source: "pyth",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PriceUSD != "23745" || result.Confidence != "1.5" {
		t.Fatalf("unexpected quote: %+v", result)
	}
	if result.Status != "trading" || result.Source != "pyth" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestFetchPriceRejectsUnknownSource(t *testing.T) {
	kit := testKit(t, &fakeChain{}, agent.Options{})
	_, err := FetchPrice(context.Background(), kit, FetchPriceRequest{Asset: "USDC", Source: "chainlink"})
	if xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestRugReportSummarizesRisks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tokens/"+tokens.Bonk.String()+"/report/summary" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"score":880,"risks":[{"name":"Low liquidity","level":"danger","score":500}]}`))
	}))
	defer server.Close()

	kit := testKit(t, &fakeChain{}, agent.Options{
		Rugcheck: rugcheck.NewClient(rugcheck.Config{BaseURL: server.URL}),
	})

	result, err := RugReport(context.Background(), kit, RugReportRequest{Asset: "BONK"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Asset != "BONK" || result.Mint != tokens.Bonk.String() {
		t.Fatalf("asset not resolved: %+v", result)
	}
	if result.Score != 880 || len(result.Risks) != 1 || result.Risks[0].Level != "danger" {
		t.Fatalf("unexpected report: %+v", result)
	}
}

func TestResolveDomainReturnsAddress(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":42,"result":"` + owner.String() + `"}`))
	}))
	defer server.Close()

	kit := testKit(t, &fakeChain{}, agent.Options{
		Names: tokens.NewSNSResolver(tokens.SNSConfig{RPCURL: server.URL}),
	})

	result, err := ResolveDomain(context.Background(), kit, ResolveDomainRequest{Domain: "Agent.sol"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Address != owner.String() || result.Domain != "agent.sol" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestTransferResolvesDomainRecipient(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":42,"result":"` + owner.String() + `"}`))
	}))
	defer server.Close()

	node := &fakeChain{}
	kit := testKit(t, node, agent.Options{
		Names: tokens.NewSNSResolver(tokens.SNSConfig{RPCURL: server.URL}),
	})

	result, err := Transfer(context.Background(), kit, TransferRequest{To: "friend.sol", Amount: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.To != owner.String() {
		t.Fatalf("domain was not resolved: %+v", result)
	}
	if len(node.sent) != 1 {
		t.Fatalf("expected one submitted transaction, got %d", len(node.sent))
	}
}

func TestTransferDomainWithoutResolverFails(t *testing.T) {
	node := &fakeChain{}
	kit := testKit(t, node, agent.Options{})
	_, err := Transfer(context.Background(), kit, TransferRequest{To: "friend.sol", Amount: 0.5})
	if xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
	if len(node.sent) != 0 {
		t.Fatalf("unresolved domains must not reach the ledger")
	}
}
