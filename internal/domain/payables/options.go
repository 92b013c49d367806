package payables

// AccountKind tells whether an account's amount is fixed or varies per occurrence
type AccountKind string

const (
	KindFixed    AccountKind = "fixed"
	KindVariable AccountKind = "variable"
)

// IsValid reports whether k is a known kind
func (k AccountKind) IsValid() bool {
	return k == KindFixed || k == KindVariable
}

// PaymentType is how an account is paid; copied into payment history as the payment method
type PaymentType string

const (
	PaymentTransfer       PaymentType = "transferencia"
	PaymentDeposit        PaymentType = "deposito"
	PaymentPixCPF         PaymentType = "pix_cpf"
	PaymentPixCNPJ        PaymentType = "pix_cnpj"
	PaymentPixEmail       PaymentType = "pix_email"
	PaymentPixPhone       PaymentType = "pix_telefone"
	PaymentPixRandomKey   PaymentType = "pix_chave_aleatoria"
	PaymentCash           PaymentType = "especie"
	PaymentBoleto         PaymentType = "boleto"
	PaymentCreditCard     PaymentType = "cartao_credito"
	PaymentDebitCard      PaymentType = "cartao_debito"
	PaymentAutomaticDebit PaymentType = "debito_automatico"
	PaymentLink           PaymentType = "link_pagamento"
	PaymentPixQRCode      PaymentType = "pix_qr_code"
)

var paymentTypeLabels = map[PaymentType]string{
	PaymentTransfer:       "Transferência",
	PaymentDeposit:        "Depósito",
	PaymentPixCPF:         "Pix CPF",
	PaymentPixCNPJ:        "Pix CNPJ",
	PaymentPixEmail:       "Pix E-mail",
	PaymentPixPhone:       "Pix Telefone",
	PaymentPixRandomKey:   "Pix Chave Aleatória",
	PaymentCash:           "Espécie (Dinheiro)",
	PaymentBoleto:         "Boleto Bancário",
	PaymentCreditCard:     "Cartão de Crédito",
	PaymentDebitCard:      "Cartão de Débito",
	PaymentAutomaticDebit: "Débito Automático",
	PaymentLink:           "Link de Pagamento",
	PaymentPixQRCode:      "Pix QR Code",
}

// IsValid reports whether p is a known payment type; empty is allowed
func (p PaymentType) IsValid() bool {
	if p == "" {
		return true
	}
	_, ok := paymentTypeLabels[p]
	return ok
}

// Label returns the display label
func (p PaymentType) Label() string {
	if l, ok := paymentTypeLabels[p]; ok {
		return l
	}
	return string(p)
}

// BankAccountType is the kind of destination bank account
type BankAccountType string

const (
	BankAccountChecking BankAccountType = "corrente"
	BankAccountSavings  BankAccountType = "poupanca"
	BankAccountPix      BankAccountType = "pix"
)

// IsValid reports whether t is a known bank account type; empty is allowed
func (t BankAccountType) IsValid() bool {
	switch t {
	case "", BankAccountChecking, BankAccountSavings, BankAccountPix:
		return true
	}
	return false
}

// VehicleCharge classifies vehicle-related bills
type VehicleCharge string

const (
	VehicleChargeIPVA        VehicleCharge = "ipva"
	VehicleChargeFine        VehicleCharge = "multa"
	VehicleChargeIPVAAndFine VehicleCharge = "ipva+multa"
)

// IsValid reports whether c is a known vehicle charge; empty is allowed
func (c VehicleCharge) IsValid() bool {
	switch c {
	case "", VehicleChargeIPVA, VehicleChargeFine, VehicleChargeIPVAAndFine:
		return true
	}
	return false
}

// Banks maps accepted origin-bank codes to their names
var Banks = map[string]string{
	"caixa":      "Caixa Econômica Federal",
	"bb":         "Banco do Brasil",
	"itau":       "Itaú Unibanco",
	"bradesco":   "Bradesco",
	"santander":  "Santander Brasil",
	"nubank":     "Nubank",
	"inter":      "Banco Inter",
	"c6":         "C6 Bank",
	"original":   "Banco Original",
	"pan":        "Banco Pan",
	"safra":      "Banco Safra",
	"mercantil":  "Banco Mercantil do Brasil",
	"banrisul":   "Banrisul",
	"bv":         "Banco Votorantim (BV)",
	"daycoval":   "Banco Daycoval",
	"bs2":        "Banco BS2",
	"digio":      "Banco Digio",
	"sicredi":    "Banco Cooperativo Sicredi",
	"sicoob":     "Banco Cooperativo Sicoob",
	"bnb":        "Banco do Nordeste do Brasil",
	"banestes":   "Banestes",
	"alfa":       "Banco Alfa",
	"modal":      "Banco Modal",
	"pine":       "Banco Pine",
	"rendimento": "Banco Rendimento",
	"rodobens":   "Banco Rodobens",
	"amazonia":   "Banco da Amazônia",
	"kebhana":    "Banco KEB Hana do Brasil",
	"johndeere":  "Banco John Deere",
	"mizuho":     "Banco Mizuho do Brasil",
	"outros":     "Outros não cadastrados",
}

// IsValidBank reports whether code is an accepted origin bank; empty is allowed
func IsValidBank(code string) bool {
	if code == "" {
		return true
	}
	_, ok := Banks[code]
	return ok
}
