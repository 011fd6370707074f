package enums

// EntryDirection classifies how a ledger entry type moves money on the
// account it targets. Transfers move an amount between buckets of the same
// account (pending to available for sellers, cod-held to balance for
// partners) without changing the account total.
type EntryDirection string

const (
	EntryDirectionCredit   EntryDirection = "credit"
	EntryDirectionDebit    EntryDirection = "debit"
	EntryDirectionTransfer EntryDirection = "transfer"
)
