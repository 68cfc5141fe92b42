package i18n

var ptBR = map[Code]string{
	CodeUnknown:                "Ocorreu um erro inesperado.",
	CodeCounterOverflow:        "Nenhum novo ativo pode ser criado.",
	CodeSameParentIndex:        "Um ativo não pode cruzar consigo mesmo (ativo {{.asset_id}}).",
	CodeInvalidAssetIndex:      "O ativo {{.asset_id}} não existe.",
	CodeNotOwner:               "Você não é dono do ativo {{.asset_id}}.",
	CodeAlreadyOwned:           "O ativo {{.asset_id}} já pertence a {{.owner}}.",
	CodeNotForSale:             "O ativo {{.asset_id}} não está à venda.",
	CodeCurrencyTransferFailed: "O pagamento de {{.amount}} pelo ativo {{.asset_id}} falhou.",
	CodeInvalidArgument:        "A requisição é inválida: {{.reason}}.",
	CodeNotFound:               "Não encontrado.",
}
