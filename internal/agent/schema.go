package agent

// bankSchema describes the store to the statement generator.
const bankSchema = `Tables:
- customer_tiers (id, name, min_balance, benefits)
- branches (id, name, address, city, manager_name)
- customers (id, first_name, last_name, email, phone, address, city, tier_id, branch_id, created_at)
- account_types (id, name, interest_rate, min_balance)
- accounts (id, account_number, customer_id, type_id, balance, status, opened_at)
- transactions (id, transaction_id, account_id, type, amount, description, recipient_account_id, created_at)
- loans (id, loan_number, customer_id, type, principal, interest_rate, term_months, monthly_payment, remaining_balance, status, created_at)
- cards (id, card_number, account_id, type, credit_limit, expiry_date, status)

Relationships:
- customers.tier_id -> customer_tiers.id
- customers.branch_id -> branches.id
- accounts.customer_id -> customers.id
- accounts.type_id -> account_types.id
- transactions.account_id -> accounts.id
- transactions.recipient_account_id -> accounts.id (nullable, for transfers)
- loans.customer_id -> customers.id
- cards.account_id -> accounts.id`

const searchPatterns = `

Search patterns:
- Partial name match: WHERE first_name ILIKE '%john%' OR last_name ILIKE '%john%'
- Account number search: WHERE account_number ILIKE 'CHK-%'
- Email search: WHERE email ILIKE '%@example.com'
- City search: WHERE city ILIKE '%seattle%'`

const analyticsPatterns = `

Common analytics patterns:
- Total balance: SUM(balance)
- Transaction count: COUNT(*)
- Average amount: AVG(amount)
- Group by month: GROUP BY to_char(created_at, 'YYYY-MM')
- Group by branch: GROUP BY b.name
- Group by customer tier: GROUP BY ct.name
- Recent 30 days: WHERE created_at >= now() - interval '30 days'`

const riskPatterns = `

Risk detection patterns:
- Large transactions: WHERE amount > 10000
- Recent large transactions: WHERE amount > 10000 AND created_at >= now() - interval '7 days'
- Multiple transactions same day: GROUP BY account_id, created_at::date HAVING COUNT(*) > 5
- Unusual withdrawal pattern: WHERE type = 'withdrawal' AND amount > (SELECT AVG(amount) * 3 FROM transactions WHERE type = 'withdrawal')
- New account large withdrawal: accounts opened < 30 days with withdrawals > 5000
- Transfers to new recipients: first-time recipient_account_id`
