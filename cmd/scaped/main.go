package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scapechain/config"
	"scapechain/core"
	"scapechain/native/companion"
	"scapechain/observability/logging"
	"scapechain/rpc"
	"scapechain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	metricsAddr := flag.String("metrics", ":9091", "Listen address for Prometheus metrics")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("SCAPE_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	if strings.TrimSpace(cfg.LogFile) != "" {
		logger = logging.SetupWithRotation("scaped", env, cfg.LogFile)
	} else {
		logger = logging.Setup("scaped", env)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	owner, err := cfg.OwnerBytes()
	if err != nil {
		logger.Error("invalid owner address", slog.Any("error", err))
		os.Exit(1)
	}
	feeRecipient, err := cfg.FeeRecipientBytes()
	if err != nil {
		logger.Error("invalid fee recipient", slog.Any("error", err))
		os.Exit(1)
	}

	referenceHolders, err := cfg.ReferenceHolderBytes()
	if err != nil {
		logger.Error("invalid reference holder", slog.Any("error", err))
		os.Exit(1)
	}

	var seed [32]byte
	copy(seed[:], ethcrypto.Keccak256([]byte(cfg.NetworkName+"/"+cfg.EntropySeed)))

	node, err := core.NewNode(db, core.NodeConfig{
		Owner:             owner,
		FeeRecipient:      feeRecipient,
		UnitPrice:         cfg.UnitPrice(),
		SaleStart:         cfg.SaleStart,
		MetadataCID:       cfg.MetadataCID,
		ContractURI:       cfg.ContractMetaURL,
		RefundOverpayment: cfg.RefundOverpayment,
		EntropySeed:       seed,
		Reference:         companion.NewStaticReference(referenceHolders...),
		Classifier:        companion.NewStaticClassifier(),
	})
	if err != nil {
		logger.Error("failed to initialise node", slog.Any("error", err))
		os.Exit(1)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle(cfg.MetricsPath, promhttp.Handler())
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()

	logger.Info("node initialised",
		slog.String("network", cfg.NetworkName),
		slog.Int64("saleStart", cfg.SaleStart),
		slog.String("unitPrice", cfg.UnitPrice().String()),
	)

	server := rpc.NewServer(node, cfg.AdminToken)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
