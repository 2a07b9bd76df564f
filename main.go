package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Permissionless-Software-Foundation/avax-dex/cache"
	"github.com/Permissionless-Software-Foundation/avax-dex/config"
	"github.com/Permissionless-Software-Foundation/avax-dex/db"
	"github.com/Permissionless-Software-Foundation/avax-dex/log"
	"github.com/Permissionless-Software-Foundation/avax-dex/mail"
	"github.com/Permissionless-Software-Foundation/avax-dex/p2wdb"
	"github.com/Permissionless-Software-Foundation/avax-dex/rpc"
	"github.com/Permissionless-Software-Foundation/avax-dex/server"
	"github.com/Permissionless-Software-Foundation/avax-dex/swap"
	"github.com/Permissionless-Software-Foundation/avax-dex/tasks"
	"github.com/Permissionless-Software-Foundation/avax-dex/tx"
	"github.com/Permissionless-Software-Foundation/avax-dex/wallet"
	"github.com/Permissionless-Software-Foundation/avax-dex/webhook"
	"golang.org/x/sync/errgroup"
)

var enableMail bool

func init() {
	flag.BoolVar(&enableMail, "mail", false, "If mail alert is enabled")
}

func main() {
	flag.Parse()

	log.Init()
	config.Load(true)
	mail.Init(enableMail)

	defer mail.AlertIfErr()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && err != context.Canceled {
		panic(err)
	}
	log.Printf("Shut down")
}

func run(ctx context.Context) error {
	store, err := db.Open(config.GetDbConnStr())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		return err
	}

	network, err := loadNetwork()
	if err != nil {
		return err
	}

	hd, err := wallet.NewHD(config.GetMnemonic(), network.HRP)
	if err != nil {
		return err
	}

	ledger := rpc.New(config.GetRPCs(), network.HRP)
	if ledger.Refresh(ctx, config.GetRPCs()) == 0 {
		log.Printf("No ledger server is bootstrapped yet")
	}

	engine, err := swap.NewEngine(
		swap.Config{
			Network:          network,
			AppID:            config.GetAppID(),
			TxFee:            config.GetTxFee(),
			BuyFeeMultiplier: config.GetBuyFeeMultiplier(),
		},
		hd,
		swap.Deps{
			Ledger:    ledger,
			Publisher: p2wdb.New(config.GetP2WDBURL()),
			Store:     store,
			Counter:   store,
			Dedup:     newDeduper(),
			Notifier:  mail.Notifier{},
		},
	)
	if err != nil {
		return err
	}
	log.Printf("Wallet address: %s", engine.Address())

	backoff, attempts := config.GetWebhookRetry()
	hooks := webhook.New(config.GetWebhookService(), config.GetAppID())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Serve(ctx, config.GetListen(), server.NewHandler(engine))
	})
	g.Go(func() error {
		return tasks.Run(ctx, engine, ledger)
	})
	g.Go(func() error {
		return hooks.WaitUntilSuccess(ctx, config.GetWebhookTarget(), webhook.RetryPolicy{
			MaxAttempts: attempts,
			Backoff:     backoff,
			MaxBackoff:  8 * backoff,
		})
	})

	return g.Wait()
}

func loadNetwork() (swap.Network, error) {
	blockchainID, err := tx.IDFromString(config.GetBlockchainID())
	if err != nil {
		return swap.Network{}, err
	}
	avaxAssetID, err := tx.IDFromString(config.GetAvaxAssetID())
	if err != nil {
		return swap.Network{}, err
	}

	return swap.Network{
		NetworkID:    config.GetNetworkID(),
		BlockchainID: blockchainID,
		AvaxAssetID:  avaxAssetID,
		HRP:          config.GetHRP(),
	}, nil
}

func newDeduper() swap.Deduper {
	if addr := config.GetRedisAddr(); addr != "" {
		log.Printf("De-duplicating webhook deliveries in redis at %s", addr)
		return cache.NewRedis(addr, cache.DefaultTTL)
	}
	return cache.NewMemory(cache.DefaultTTL)
}
