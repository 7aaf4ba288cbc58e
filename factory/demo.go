/*
demo.go - A ready-made example household

PURPOSE:
  Seeds a small but representative household so a fresh install has
  something to look at: a rotating daily chore, a weekly weighted chore,
  a claimable fixed-reward chore, weekly allowances, and a multi-day
  packing list.
*/
package factory

// DemoHouseholdYAML is the example household shipped with the server.
const DemoHouseholdYAML = `
members:
  - id: zoe
    name: Zoe
  - id: max
    name: Max

chores:
  - id: dishes
    title: Do the dishes
    start: 2024-01-01
    recurrence: FREQ=DAILY
    assignees: [zoe, max]
    rotation: [zoe, max]
    rotation_unit: daily
    weight: 5

  - id: trash
    title: Take out the trash
    start: 2024-01-01
    recurrence: FREQ=WEEKLY;BYDAY=MO,TH
    assignees: [zoe]
    weight: 3

  - id: car-wash
    title: Wash the car
    start: 2024-01-06
    recurrence: FREQ=WEEKLY;BYDAY=SA
    assignees: [zoe, max]
    claimable: true
    fixed_amount: "5"
    currency: USD

allowances:
  - member: zoe
    amount: "10"
    currency: USD
    recurrence: FREQ=WEEKLY
    anchor: 2024-01-01
    payout_delay_days: 2
  - member: max
    amount: "10"
    currency: USD
    recurrence: FREQ=WEEKLY
    anchor: 2024-01-01
    payout_delay_days: 2

series:
  - id: trip-packing
    title: Trip packing list
    start: 2024-03-25
    recurrence: FREQ=DAILY
    tasks:
      - "Passports"
      - "Chargers"
      - "---"
      - "Bathroom bag"
      - "  Toothbrushes"
      - "  Sunscreen"
      - "---"
      - "Snacks"
`

// DemoHousehold parses the built-in example household.
func DemoHousehold() (Household, error) {
	return ParseHousehold([]byte(DemoHouseholdYAML))
}
