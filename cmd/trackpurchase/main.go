package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fr0stylo/cashwidget/pkg/purchasetracker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file loaded:", err)
	}
	v := viper.New()
	v.AutomaticEnv()

	endpoint := flag.String("endpoint", strings.TrimSpace(v.GetString("CASHWIDGET_ENDPOINT")), "cashwidget base URL (or CASHWIDGET_ENDPOINT)")
	secret := flag.String("secret", strings.TrimSpace(v.GetString("CASHWIDGET_PARTNER_SECRET")), "Signing secret (or CASHWIDGET_PARTNER_SECRET); empty sends unsigned")
	scheme := flag.String("scheme", strings.TrimSpace(v.GetString("CASHWIDGET_SIGNATURE_SCHEME")), "Signature scheme: concat or hkdf")
	publicKey := flag.String("key", strings.TrimSpace(v.GetString("CASHWIDGET_PUBLIC_KEY")), "Partner public key (or CASHWIDGET_PUBLIC_KEY)")
	userID := flag.String("user", "", "Wallet user id")
	orderID := flag.String("order", "", "Partner order id")
	value := flag.String("value", "", "Order value, e.g. 100.00")
	shop := flag.String("shop", "", "Shop name (optional)")
	timeout := flag.Duration("timeout", 10*time.Second, "Request timeout")
	flag.Parse()

	if strings.TrimSpace(*endpoint) == "" || strings.TrimSpace(*publicKey) == "" {
		exitErr("endpoint/key are required (or set CASHWIDGET_ENDPOINT, CASHWIDGET_PUBLIC_KEY)")
	}

	client := purchasetracker.Client{
		Endpoint: strings.TrimSpace(*endpoint),
		Secret:   strings.TrimSpace(*secret),
		Scheme:   strings.TrimSpace(*scheme),
		Timeout:  *timeout,
	}
	receipt, err := client.Track(context.Background(), purchasetracker.Purchase{
		PublicKey:  strings.TrimSpace(*publicKey),
		UserID:     strings.TrimSpace(*userID),
		OrderID:    strings.TrimSpace(*orderID),
		OrderValue: strings.TrimSpace(*value),
		ShopName:   strings.TrimSpace(*shop),
	})
	if err != nil {
		exitErr(err.Error())
	}

	state := "credited"
	if receipt.Replayed {
		state = "already tracked"
	}
	fmt.Printf("Purchase %s %s cashback=%s transaction=%s provisional=%t\n",
		receipt.PurchaseID, state, receipt.CashbackAmount, receipt.TransactionID, receipt.Provisional)
}

func exitErr(message string) {
	fmt.Fprintln(os.Stderr, message)
	os.Exit(1)
}
