package mail

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Permissionless-Software-Foundation/avax-dex/config"
	"github.com/Permissionless-Software-Foundation/avax-dex/entity"
	"github.com/Permissionless-Software-Foundation/avax-dex/log"

	"github.com/aliyun/alibaba-cloud-sdk-go/sdk/requests"
	"github.com/aliyun/alibaba-cloud-sdk-go/services/dm"

	eParser "github.com/go-errors/errors"
)

// sender is the part of the direct mail client used here.
type sender interface {
	SingleSendMail(*dm.SingleSendMailRequest) (*dm.SingleSendMailResponse, error)
}

var client sender

// Init connects to aliyun direct mail. Alerts are dropped when enableMail is false.
func Init(enableMail bool) {
	if !enableMail {
		client = nil
		return
	}

	if err := config.LoadAliyunMailConfig(); err != nil {
		panic(err)
	}
	mailCfg := config.GetAliyunMailConfig()

	dmClient, err := dm.NewClientWithAccessKey(mailCfg.Region, mailCfg.AccessKeyID, mailCfg.AccessKeySecret)
	if err != nil {
		panic(err)
	}
	client = dmClient
}

// AlertIfErr recovers a panic of the calling goroutine and mails its stack.
// It must be deferred directly.
func AlertIfErr() {
	if client == nil {
		return
	}
	if r := recover(); r != nil {
		alert(r)
	}
}

func alert(r interface{}) {
	stack := eParser.Wrap(panicError(r), 0).ErrorStack()
	log.Errorf("%s", stack)
	SendNotify("avax-dex stopped on a panic", alertBody(config.GetLabel(), stack))
}

func alertBody(label, stack string) string {
	if label == "" {
		label = "unlabelled"
	}
	return fmt.Sprintf("Node: %s\n\n%s", label, stack)
}

func panicError(r interface{}) error {
	switch t := r.(type) {
	case string:
		return errors.New(t)
	case error:
		return t
	default:
		return fmt.Errorf("panic: %v", t)
	}
}

// SendNotify mails subject and content to the configured receivers.
func SendNotify(subject string, content string) {
	if client == nil {
		return
	}
	if content == "" {
		log.Errorf("mail %q has no content", subject)
		return
	}

	req := newRequest(config.GetAliyunMailConfig(), config.GetLabel(), subject, content)
	if _, err := client.SingleSendMail(req); err != nil {
		log.Errorf("send mail %q: %v", subject, err)
	}
}

func newRequest(mailCfg config.AliyunMailConfig, label, subject, content string) *dm.SingleSendMailRequest {
	req := dm.CreateSingleSendMailRequest()
	req.AccountName = mailCfg.AccountName
	req.ReplyToAddress = requests.NewBoolean(false)
	req.AddressType = requests.NewInteger(1)
	req.FromAlias = fromAlias(label)
	req.Subject = subject
	req.TextBody = content
	req.ToAddress = strings.Join(mailCfg.Receiver, ",")
	return req
}

func fromAlias(label string) string {
	if label == "" {
		return "avax-dex"
	}
	return fmt.Sprintf("[%s]-dex", label)
}

// Notifier mails a notice for every settled trade.
type Notifier struct{}

// TradeCompleted sends the settlement details of order.
func (Notifier) TradeCompleted(order *entity.Order, txID string) {
	SendNotify(fmt.Sprintf("avax-dex %s order settled", order.BuyOrSell), tradeSummary(order, txID))
}

func tradeSummary(order *entity.Order, txID string) string {
	return fmt.Sprintf(
		"Order %s (offer %s) settled in transaction %s\n%s %s of token %s for %d nAVAX",
		order.P2WDBHash,
		order.OfferHash,
		txID,
		order.BuyOrSell,
		order.NumTokens.String(),
		order.TokenID,
		order.RateInSats,
	)
}
